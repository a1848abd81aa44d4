package display

import (
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// PartitionID is the stable identity of a reserved partition.
type PartitionID string

// PartitionInfo describes one live partition. Immutable for its lifetime;
// partitions are never resized.
type PartitionInfo struct {
	ID    PartitionID
	Owner string
	Area  Rect
}

// Registry validates and tracks the set of live, non-overlapping
// partitions against the display bounds. Reservation is an atomic
// check-and-insert: concurrent Reserve calls never observe each other's
// uncommitted state.
type Registry struct {
	mu     sync.Mutex
	bounds Rect
	live   []PartitionInfo
}

// NewRegistry creates a registry for a display of the given size.
func NewRegistry(size Size) *Registry {
	return &Registry{bounds: Rect{Width: size.Width, Height: size.Height}}
}

// Bounds returns the display bounds.
func (r *Registry) Bounds() Rect {
	return r.bounds
}

// Reserve registers a new partition. Fails with ErrOutOfBounds if area is
// not fully contained in the display, or ErrOverlap if it intersects a
// live partition.
func (r *Registry) Reserve(owner string, area Rect) (PartitionID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !area.In(r.bounds) {
		return "", fmt.Errorf("%w: %+v not in %+v", ErrOutOfBounds, area, r.bounds)
	}
	for _, p := range r.live {
		if p.Area.Overlaps(area) {
			return "", fmt.Errorf("%w: %+v intersects %+v owned by %q", ErrOverlap, area, p.Area, p.Owner)
		}
	}

	id := PartitionID(ulid.Make().String())
	r.live = append(r.live, PartitionInfo{ID: id, Owner: owner, Area: area})
	return id, nil
}

// Release removes a reservation, making its exact area immediately
// reservable again. Fails with ErrNotFound for unknown or already-released
// ids. Release only mutates registry state, never pixel data, so it is
// safe while a flush holds the gate.
func (r *Registry) Release(id PartitionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.live {
		if p.ID == id {
			r.live = append(r.live[:i], r.live[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Snapshot returns the live partitions in insertion order.
func (r *Registry) Snapshot() []PartitionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PartitionInfo, len(r.live))
	copy(out, r.live)
	return out
}

// Count returns the number of live partitions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
