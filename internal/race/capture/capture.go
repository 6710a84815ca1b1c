package capture

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

const (
	// DefaultMaxBytes is the cap applied to a player's stderr.
	DefaultMaxBytes = 1 << 15
	// Unlimited disables the cap.
	Unlimited = -1
	// DefaultGrace is how long Close waits for the stream to end.
	DefaultGrace = 500 * time.Millisecond
)

// Capture forwards bytes from src to sink one at a time until src ends or
// the cap is hit. Bytes past the cap are drained and dropped so the player
// never blocks on a full stderr pipe.
type Capture struct {
	gate     *Gate
	sink     io.Writer
	maxBytes int
	written  atomic.Int64
	capped   atomic.Bool
	detached atomic.Bool
	done     chan struct{}
}

// Start launches the capture goroutine. sink may be nil, in which case src
// is only drained. gate must not be nil.
func Start(src io.Reader, sink io.Writer, gate *Gate, maxBytes int) *Capture {
	c := &Capture{
		gate:     gate,
		sink:     sink,
		maxBytes: maxBytes,
		done:     make(chan struct{}),
	}
	go c.run(src)
	return c
}

func (c *Capture) run(src io.Reader) {
	defer close(c.done)

	r := bufio.NewReader(src)
	one := make([]byte, 1)
	size := 0
	for c.maxBytes == Unlimited || size < c.maxBytes {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		size++
		if c.sink == nil {
			continue
		}
		one[0] = b
		if c.emit(func() { _, _ = c.sink.Write(one) }) {
			c.written.Add(1)
		}
	}

	c.capped.Store(true)
	if c.sink != nil {
		c.emit(func() {
			_, _ = fmt.Fprintf(c.sink, "\n[system] stderr output have reached the limit(MAX_SIZE=%d bytes)\n", c.maxBytes)
		})
	}
	_, _ = io.Copy(io.Discard, r)
}

// emit runs write under the gate unless the capture has been detached from
// its sink, and reports whether it ran.
func (c *Capture) emit(write func()) bool {
	ran := false
	c.gate.locked(func() {
		if c.detached.Load() {
			return
		}
		write()
		ran = true
	})
	return ran
}

// Done is closed when the source stream has ended.
func (c *Capture) Done() <-chan struct{} {
	return c.done
}

// Written returns how many captured bytes reached the sink.
func (c *Capture) Written() int64 {
	return c.written.Load()
}

// Capped reports whether the cap was reached.
func (c *Capture) Capped() bool {
	return c.capped.Load()
}

// Close waits up to grace for the stream to end. When it does not, the
// goroutine is detached from the sink and Close reports false; it keeps
// draining the source until that is closed, but never writes again. Must be
// called by the gate's owner.
func (c *Capture) Close(grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-c.done:
		return true
	case <-timer.C:
	}
	c.gate.Exclusive(func() {
		c.detached.Store(true)
	})
	return false
}
