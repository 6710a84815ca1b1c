// Package exchange races a blocking read from a player against its time budget.
package exchange

import (
	"bufio"
	"time"
)

// Outcome is the result of one timed exchange.
type Outcome[T any] struct {
	Value T
	// Reader is handed back when the read finished in time and is nil otherwise:
	// a timed out read goroutine keeps the reader for good.
	Reader   *bufio.Reader
	TimedOut bool
	Elapsed  time.Duration
}

type handoff[T any] struct {
	reader *bufio.Reader
	value  T
}

// Run moves r into a new goroutine that calls read, and waits at most budget
// for it. On timeout the goroutine is detached; interrupt, when not nil, is
// then called so a read blocked on a deadline-capable stream can give up.
//
// A budget that is already exhausted times out without reading.
func Run[T any](r *bufio.Reader, budget time.Duration, read func(*bufio.Reader) T, interrupt func()) Outcome[T] {
	start := time.Now()
	if budget <= 0 {
		if interrupt != nil {
			interrupt()
		}
		return Outcome[T]{TimedOut: true, Elapsed: time.Since(start)}
	}

	ch := make(chan handoff[T], 1)
	go func(in *bufio.Reader) {
		v := read(in)
		ch <- handoff[T]{reader: in, value: v}
	}(r)

	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case h := <-ch:
		return Outcome[T]{Value: h.value, Reader: h.reader, Elapsed: time.Since(start)}
	case <-timer.C:
		elapsed := time.Since(start)
		if interrupt != nil {
			interrupt()
		}
		return Outcome[T]{TimedOut: true, Elapsed: elapsed}
	}
}

// Millis converts an elapsed duration into budget milliseconds, rounding up
// so any exchange costs at least one millisecond.
func Millis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}
