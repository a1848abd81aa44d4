// Package display implements a shared framebuffer for concurrent apps:
// each app owns a disjoint partition of one logical screen, draws through
// a scoped handle, and a flush path pushes the combined pixels to a
// driver, raw or as chunked RLE bands.
package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/muralkit/mural/driver"
)

// AppFunc is the body of an app task. It draws through its partition
// handle until done or ctx is cancelled; its return value surfaces
// through Wait.
type AppFunc func(ctx context.Context, p *Partition) error

// Config configures a Screen.
type Config struct {
	// Driver is a ready display handle; the screen takes ownership.
	Driver driver.Driver
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Screen is the uncompressed shared display: one resident full-resolution
// buffer, partitioned among concurrently running apps.
type Screen struct {
	drv    driver.Driver
	log    *slog.Logger
	buffer *Buffer
	gate   Gate
	reg    *Registry
	group  errgroup.Group
}

// NewScreen creates a shared display over a ready driver.
func NewScreen(cfg Config) (*Screen, error) {
	if cfg.Driver == nil {
		return nil, errors.New("display: driver is required")
	}
	w, h := cfg.Driver.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("display: driver reports invalid size %dx%d", w, h)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Screen{
		drv:    cfg.Driver,
		log:    log,
		buffer: NewBuffer(w, h),
		reg:    NewRegistry(Size{Width: w, Height: h}),
	}, nil
}

// Size returns the display bounds.
func (s *Screen) Size() Size {
	w, h := s.buffer.Size()
	return Size{Width: w, Height: h}
}

// Launch reserves area and spawns fn as a concurrently scheduled app task
// bound to an access handle for it. On registry failure no task is spawned
// and the error returns synchronously. The partition is released on every
// exit path: normal return, error, cancellation, panic.
func (s *Screen) Launch(ctx context.Context, owner string, area Rect, fn AppFunc) (PartitionID, error) {
	id, err := s.reg.Reserve(owner, area)
	if err != nil {
		return "", err
	}
	p := &Partition{
		info:   PartitionInfo{ID: id, Owner: owner, Area: area},
		buffer: s.buffer,
		gate:   &s.gate,
	}
	s.log.Info("display: app launched", "owner", owner, "id", string(id), "area", area)
	s.group.Go(func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("display: app %q panicked: %v", owner, rec)
			}
			if relErr := s.reg.Release(id); relErr != nil && !errors.Is(relErr, ErrNotFound) {
				s.log.Warn("display: release failed", "owner", owner, "id", string(id), "err", relErr)
			}
			s.log.Info("display: app exited", "owner", owner, "id", string(id), "err", err)
		}()
		return fn(ctx, p)
	})
	return id, nil
}

// Release removes a partition reservation by hand, for apps that outlive
// their screen region. Safe while a flush holds the gate.
func (s *Screen) Release(id PartitionID) error {
	return s.reg.Release(id)
}

// Partitions returns the live partitions in launch order.
func (s *Screen) Partitions() []PartitionInfo {
	return s.reg.Snapshot()
}

// Wait blocks until all launched apps have exited and returns the first
// app error, if any.
func (s *Screen) Wait() error {
	return s.group.Wait()
}

// Close closes the underlying driver.
func (s *Screen) Close() error {
	return s.drv.Close()
}
