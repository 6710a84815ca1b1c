package exchange

import (
	"bufio"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"racejudge/internal/race/wire"
)

func TestRunCompletesInTime(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("0\n"))
	out := Run(r, time.Second, wire.ReadInt, nil)

	if out.TimedOut {
		t.Fatalf("unexpected timeout")
	}
	if out.Reader != r {
		t.Fatalf("reader ownership was not handed back")
	}
	if !out.Value.OK || out.Value.Value != 0 {
		t.Fatalf("unexpected value %+v", out.Value)
	}
	if out.Elapsed <= 0 || out.Elapsed > time.Second {
		t.Fatalf("unexpected elapsed %v", out.Elapsed)
	}
}

func TestRunTimesOutWithinBudget(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	var interrupted atomic.Bool
	start := time.Now()
	out := Run(bufio.NewReader(pr), 50*time.Millisecond, wire.ReadInt, func() {
		interrupted.Store(true)
		_ = pr.Close()
	})
	waited := time.Since(start)

	if !out.TimedOut {
		t.Fatalf("expected timeout")
	}
	if out.Reader != nil {
		t.Fatalf("reader must stay with the abandoned goroutine")
	}
	if waited > 500*time.Millisecond {
		t.Fatalf("Run blocked for %v past a 50ms budget", waited)
	}
	if !interrupted.Load() {
		t.Fatalf("interrupt was not called")
	}
}

func TestRunExhaustedBudget(t *testing.T) {
	var reads atomic.Int32
	read := func(r *bufio.Reader) int {
		reads.Add(1)
		return 1
	}

	for _, budget := range []time.Duration{0, -time.Second} {
		out := Run(bufio.NewReader(strings.NewReader("0")), budget, read, nil)
		if !out.TimedOut {
			t.Fatalf("budget %v: expected timeout", budget)
		}
	}
	if reads.Load() != 0 {
		t.Fatalf("no read should start with an exhausted budget")
	}
}

func TestMillis(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{0, 0},
		{-time.Millisecond, 0},
		{time.Nanosecond, 1},
		{time.Millisecond, 1},
		{1500 * time.Microsecond, 2},
		{250 * time.Millisecond, 250},
	}
	for _, tt := range tests {
		if got := Millis(tt.in); got != tt.want {
			t.Errorf("Millis(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
