package display

import (
	"context"
	"time"

	"github.com/muralkit/mural/driver"
)

// DefaultFlushInterval is the cadence the flush loops use when the caller
// passes no interval.
const DefaultFlushInterval = 20 * time.Millisecond

// Flush pushes the full buffer to the driver. The gate is held exclusively
// for the duration of the transfer and released unconditionally; a driver
// failure surfaces as *DriverError and is never retried here.
func (s *Screen) Flush() error {
	return s.gate.Flushing(func() error {
		w, h := s.buffer.Size()
		if err := s.drv.Flush(s.buffer.Pixels(), w, h); err != nil {
			return &DriverError{Err: err}
		}
		s.buffer.ClearDirty()
		return nil
	})
}

// FlushDirty pushes only the region dirtied since the last flush, as
// per-row spans through the driver's optional RectWriter. Falls back to a
// full flush when the driver has no rect support or most of the screen
// changed. Dirty state is cleared only after a successful transfer.
func (s *Screen) FlushDirty() error {
	rw, hasRect := s.drv.(driver.RectWriter)
	return s.gate.Flushing(func() error {
		if !s.buffer.IsDirty() {
			return nil
		}
		w, h := s.buffer.Size()
		if !hasRect || s.buffer.DirtyCount() > w*h/2 {
			if err := s.drv.Flush(s.buffer.Pixels(), w, h); err != nil {
				return &DriverError{Err: err}
			}
			s.buffer.ClearDirty()
			return nil
		}
		var err error
		s.buffer.ForEachDirtySpan(func(y, startX, endX int) {
			if err != nil {
				return
			}
			row := s.buffer.Pixels()[y*w+startX : y*w+endX]
			if e := rw.FlushRect(startX, y, endX-startX, 1, row); e != nil {
				err = &DriverError{Err: e}
			}
		})
		if err != nil {
			return err
		}
		s.buffer.ClearDirty()
		return nil
	})
}

// FlushLoop runs FlushDirty on an interval until ctx is done (returning
// ctx.Err()) or a transfer fails (returning the *DriverError). Cadence is
// a collaborator concern; apps that want caller-driven flushing call
// Flush or FlushDirty directly instead.
func (s *Screen) FlushLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.FlushDirty(); err != nil {
				s.log.Error("display: flush failed", "err", err)
				return err
			}
		}
	}
}
