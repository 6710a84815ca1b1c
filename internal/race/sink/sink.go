// Package sink opens the per-player log files that receive wire traffic and
// captured diagnostics.
package sink

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	appErr "racejudge/pkg/errors"
)

// File is a buffered, optionally zstd compressed log file.
type File struct {
	path string
	file *os.File
	enc  *zstd.Encoder
	buf  *bufio.Writer
}

// Open creates (truncating) the log file at path. Paths ending in ".zst", or
// any path when compress is set, are written zstd compressed.
func Open(path string, compress bool) (*File, error) {
	if path == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("sink path is required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, appErr.Wrapf(err, appErr.LogSinkOpenFailed, "create log dir %s failed", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.LogSinkOpenFailed, "open log %s failed", path)
	}

	s := &File{path: path, file: f}
	var w io.Writer = f
	if compress || strings.HasSuffix(path, ".zst") {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			_ = f.Close()
			return nil, appErr.Wrapf(err, appErr.LogSinkOpenFailed, "create zstd writer for %s failed", path)
		}
		s.enc = enc
		w = enc
	}
	s.buf = bufio.NewWriter(w)
	return s, nil
}

// Path returns the file path.
func (s *File) Path() string {
	return s.path
}

func (s *File) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

// Flush pushes buffered bytes to the file. Compressed sinks emit a block.
func (s *File) Flush() error {
	if err := s.buf.Flush(); err != nil {
		return err
	}
	if s.enc != nil {
		return s.enc.Flush()
	}
	return nil
}

// Close flushes and closes the file.
func (s *File) Close() error {
	err := s.buf.Flush()
	if s.enc != nil {
		err = multierr.Append(err, s.enc.Close())
	}
	err = multierr.Append(err, s.file.Close())
	if err != nil {
		return appErr.Wrapf(err, appErr.LogSinkCloseFailed, "close log %s failed", s.path)
	}
	return nil
}
