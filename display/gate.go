package display

import "sync"

// Gate is the single coordination point between apps drawing and a flush
// observing the whole buffer. Drawers hold it in shared mode scoped to
// their own partition, so disjoint apps draw in parallel; a flush holds it
// exclusively, so it always observes a valid snapshot, never a torn write.
//
// No ordering is guaranteed among waiters.
type Gate struct {
	mu sync.RWMutex
}

// Drawing runs fn while holding the gate in shared mode. Release is
// unconditional, including on panic.
func (g *Gate) Drawing(fn func()) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn()
}

// Flushing runs fn while holding the gate exclusively. Release is
// unconditional, including on panic, so a failed transfer can never
// deadlock subsequent draws.
func (g *Gate) Flushing(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}
