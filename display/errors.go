package display

import "errors"

// Partition and access errors. All are synchronous and surfaced to the
// caller; the core never clips or otherwise auto-corrects a rejected
// operation.
var (
	// ErrOutOfBounds means a requested partition exceeds the display bounds.
	ErrOutOfBounds = errors.New("display: partition outside display bounds")
	// ErrOverlap means a requested partition intersects a live partition.
	ErrOverlap = errors.New("display: partition overlaps an existing partition")
	// ErrNotFound means a partition id is unknown or already released.
	ErrNotFound = errors.New("display: partition not found")
	// ErrOutOfPartition means a draw or read outside the handle's area.
	ErrOutOfPartition = errors.New("display: point outside partition")
)

// DriverError wraps a transfer failure from the underlying driver. It is
// opaque to the core: no retry, no partial-state cleanup needed, the gate
// is released on every exit path.
type DriverError struct {
	Err error
}

func (e *DriverError) Error() string {
	return "display: driver transfer failed: " + e.Err.Error()
}

func (e *DriverError) Unwrap() error {
	return e.Err
}
