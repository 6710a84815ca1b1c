// Package wire implements the text protocol spoken with player programs.
//
// Every value on the wire is a decimal integer; tokens are separated by
// whitespace. Decoding never fails hard: a malformed token yields an absent
// value plus human readable diagnostics.
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"racejudge/internal/race/course"
)

const (
	// clipLength is the longest token echoed back verbatim in diagnostics.
	clipLength = 100
	// maxTokenBytes bounds memory spent on a single runaway token; the rest is consumed and dropped.
	maxTokenBytes = 4096
)

// Message is a parsed value (if any) together with the diagnostics produced while reading it.
type Message[T any] struct {
	Value T
	OK    bool

	// EOF is set when the stream ended before a token could be read.
	EOF         bool
	Diagnostics []string
}

// ErrTokenTooLong is returned by ReadToken, together with the first
// maxTokenBytes bytes, when a token was longer than that.
var ErrTokenTooLong = errors.New("token too long")

// ReadToken reads one whitespace-delimited token. It returns io.EOF when the
// stream ends before any token byte is seen.
func ReadToken(r *bufio.Reader) (string, error) {
	tok, err := scanToken(r)
	if err == nil && tok.truncated {
		err = ErrTokenTooLong
	}
	return tok.text, err
}

// maxSignificant is one digit more than the 32-bit range needs, enough for
// ParseInt to report a range error.
const maxSignificant = 11

// token is a scanned token. Besides the kept text it remembers, in bounded
// memory, whether the whole token was a signed decimal and its significant
// digits, so a clipped token is never judged by its prefix alone.
type token struct {
	text      string
	truncated bool
	numeric   bool
	sign      byte
	digits    []byte
}

// number renders the whole token as a short decimal for ParseInt.
func (t token) number() string {
	n := make([]byte, 0, len(t.digits)+2)
	if t.sign != 0 {
		n = append(n, t.sign)
	}
	if len(t.digits) == 0 {
		return string(append(n, '0'))
	}
	return string(append(n, t.digits...))
}

func scanToken(r *bufio.Reader) (token, error) {
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return token{}, err
		}
		if !isSpace(b) {
			break
		}
	}

	text := make([]byte, 0, 16)
	tok := token{numeric: true}
	sawDigit := false
	for n := 0; ; n++ {
		if len(text) < maxTokenBytes {
			text = append(text, b)
		} else {
			tok.truncated = true
		}
		switch {
		case n == 0 && (b == '+' || b == '-'):
			tok.sign = b
		case b >= '0' && b <= '9':
			sawDigit = true
			if (b != '0' || len(tok.digits) > 0) && len(tok.digits) < maxSignificant {
				tok.digits = append(tok.digits, b)
			}
		default:
			tok.numeric = false
		}

		b, err = r.ReadByte()
		if err != nil || isSpace(b) {
			break
		}
	}
	tok.text = string(text)
	tok.numeric = tok.numeric && sawDigit
	if err != nil && !errors.Is(err, io.EOF) {
		return tok, err
	}
	return tok, nil
}

// ReadInt reads one integer token in the 32-bit signed range.
func ReadInt(r *bufio.Reader) Message[int] {
	if r == nil {
		return Message[int]{EOF: true, Diagnostics: []string{"input stream is closed"}}
	}
	tok, err := scanToken(r)
	if tok.text == "" {
		if err == nil || errors.Is(err, io.EOF) {
			return Message[int]{EOF: true, Diagnostics: []string{"input stream is closed"}}
		}
		return Message[int]{EOF: true, Diagnostics: []string{"read from AI failed: " + err.Error()}}
	}

	num := tok.text
	if tok.truncated {
		if !tok.numeric {
			perr := &strconv.NumError{Func: "ParseInt", Num: tok.text, Err: strconv.ErrSyntax}
			return Message[int]{Diagnostics: []string{describeBadToken(tok.text, perr)}}
		}
		num = tok.number()
	}
	v, perr := strconv.ParseInt(num, 10, 32)
	if perr != nil {
		return Message[int]{Diagnostics: []string{describeBadToken(tok.text, perr)}}
	}
	return Message[int]{Value: int(v), OK: true}
}

// ReadAccel reads an "ax ay" pair. The pair is present only when both
// components parsed; diagnostics of both reads are kept in order.
func ReadAccel(r *bufio.Reader) Message[course.Vec] {
	ax := ReadInt(r)
	ay := ReadInt(r)

	msg := Message[course.Vec]{EOF: ax.EOF || ay.EOF}
	msg.Diagnostics = append(msg.Diagnostics, ax.Diagnostics...)
	msg.Diagnostics = append(msg.Diagnostics, ay.Diagnostics...)
	if ax.OK && ay.OK {
		msg.Value = course.Vec{X: ax.Value, Y: ay.Value}
		msg.OK = true
	}
	return msg
}

func describeBadToken(tok string, err error) string {
	shown, clipped := tok, ""
	if len(tok) >= clipLength {
		shown = tok[:clipLength] + "..."
		clipped = "(clipped)"
	}

	reason := err.Error()
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		reason = numErr.Err.Error()
		if errors.Is(numErr.Err, strconv.ErrRange) {
			return fmt.Sprintf("input out of int range value from AI: %q%s: %s", shown, clipped, reason)
		}
	}
	return fmt.Sprintf("input invalid argument from AI: %q%s: %s", shown, clipped, reason)
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
