// Package capture copies a player's diagnostic stream into a bounded sink.
package capture

import (
	"sync"
	"sync/atomic"
)

// Gate coordinates writes to a shared diagnostic sink between the capture
// goroutine and its owner. While the owner holds the gate paused, captured
// bytes wait, so owner-written lines never split a line of player output.
//
// Pause and Resume must only be called by the owner; both are idempotent.
type Gate struct {
	mu     sync.Mutex
	paused atomic.Bool
}

// Pause blocks captured writes until Resume. No-op if already paused.
func (g *Gate) Pause() {
	if g.paused.Load() {
		return
	}
	g.mu.Lock()
	g.paused.Store(true)
}

// Resume lets captured writes proceed. No-op unless paused.
func (g *Gate) Resume() {
	if !g.paused.Swap(false) {
		return
	}
	g.mu.Unlock()
}

// Paused reports whether the owner currently holds the gate.
func (g *Gate) Paused() bool {
	return g.paused.Load()
}

// Exclusive runs fn with exclusive access to the sink. Owner calls made
// while paused already have it.
func (g *Gate) Exclusive(fn func()) {
	if g.Paused() {
		fn()
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// locked is used by the capture goroutine for each forwarded byte.
func (g *Gate) locked(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}
