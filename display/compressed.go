package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/muralkit/mural/driver"
	"github.com/muralkit/mural/pixel"
	"github.com/muralkit/mural/rle"
)

// DefaultChunkHeight is used when CompressedConfig leaves ChunkHeight zero.
const DefaultChunkHeight = 16

// CompressedAppFunc is the body of an app task on a compressed screen.
type CompressedAppFunc func(ctx context.Context, p *CompressedPartition) error

// CompressedConfig configures a CompressedScreen.
type CompressedConfig struct {
	// Driver must also implement driver.ChunkWriter.
	Driver driver.Driver
	// ChunkHeight is the memory/latency knob: 1 holds a single scanline
	// resident at the cost of one gate acquisition and driver call per
	// scanline; the display height degenerates to a full-frame flush.
	// The last band is shorter when the height is not a multiple.
	ChunkHeight int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// CompressedScreen is the memory-constrained variant of Screen: no full
// framebuffer exists. Each partition holds its own RLE buffer, and the
// flush path materializes one band of pixels at a time.
type CompressedScreen struct {
	drv         driver.Driver
	chunks      driver.ChunkWriter
	chunkHeight int
	size        Size
	log         *slog.Logger
	gate        Gate
	reg         *Registry
	group       errgroup.Group

	mu    sync.Mutex
	parts []*CompressedPartition
}

// NewCompressedScreen creates a chunk-flushing shared display over a ready
// driver supporting band writes.
func NewCompressedScreen(cfg CompressedConfig) (*CompressedScreen, error) {
	if cfg.Driver == nil {
		return nil, errors.New("display: driver is required")
	}
	cw, ok := cfg.Driver.(driver.ChunkWriter)
	if !ok {
		return nil, errors.New("display: driver does not support chunk writes")
	}
	w, h := cfg.Driver.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("display: driver reports invalid size %dx%d", w, h)
	}
	chunkHeight := cfg.ChunkHeight
	if chunkHeight == 0 {
		chunkHeight = DefaultChunkHeight
	}
	if chunkHeight < 1 || chunkHeight > h {
		return nil, fmt.Errorf("display: chunk height %d not in [1,%d]", chunkHeight, h)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &CompressedScreen{
		drv:         cfg.Driver,
		chunks:      cw,
		chunkHeight: chunkHeight,
		size:        Size{Width: w, Height: h},
		log:         log,
		reg:         NewRegistry(Size{Width: w, Height: h}),
	}, nil
}

// Size returns the display bounds.
func (cs *CompressedScreen) Size() Size {
	return cs.size
}

// ChunkHeight returns the configured band height.
func (cs *CompressedScreen) ChunkHeight() int {
	return cs.chunkHeight
}

// Launch mirrors Screen.Launch for the compressed variant: the partition
// gets its own RLE buffer instead of a window into a shared one.
func (cs *CompressedScreen) Launch(ctx context.Context, owner string, area Rect, fn CompressedAppFunc) (PartitionID, error) {
	id, err := cs.reg.Reserve(owner, area)
	if err != nil {
		return "", err
	}
	p := &CompressedPartition{
		info: PartitionInfo{ID: id, Owner: owner, Area: area},
		buf:  rle.NewBuffer(area.Width, area.Height, pixel.Black),
		gate: &cs.gate,
	}
	cs.mu.Lock()
	cs.parts = append(cs.parts, p)
	cs.mu.Unlock()

	cs.log.Info("display: app launched", "owner", owner, "id", string(id), "area", area, "compressed", true)
	cs.group.Go(func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("display: app %q panicked: %v", owner, rec)
			}
			if relErr := cs.Release(id); relErr != nil && !errors.Is(relErr, ErrNotFound) {
				cs.log.Warn("display: release failed", "owner", owner, "id", string(id), "err", relErr)
			}
			cs.log.Info("display: app exited", "owner", owner, "id", string(id), "err", err)
		}()
		return fn(ctx, p)
	})
	return id, nil
}

// Release removes a partition and its RLE buffer. Safe while a flush holds
// the gate; the partition simply stops contributing to later bands.
func (cs *CompressedScreen) Release(id PartitionID) error {
	if err := cs.reg.Release(id); err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for i, p := range cs.parts {
		if p.info.ID == id {
			cs.parts = append(cs.parts[:i], cs.parts[i+1:]...)
			break
		}
	}
	return nil
}

// Partitions returns the live partitions in launch order.
func (cs *CompressedScreen) Partitions() []PartitionInfo {
	return cs.reg.Snapshot()
}

// Wait blocks until all launched apps have exited.
func (cs *CompressedScreen) Wait() error {
	return cs.group.Wait()
}

// Close closes the underlying driver.
func (cs *CompressedScreen) Close() error {
	return cs.drv.Close()
}

func (cs *CompressedScreen) snapshotParts() []*CompressedPartition {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]*CompressedPartition, len(cs.parts))
	copy(out, cs.parts)
	return out
}

// FlushChunks flushes the whole display as full-width bands of the
// configured chunk height, top to bottom. Per band: the gate is held
// exclusively only while the band's pixels are decoded out of the
// partitions' RLE buffers, then released before the encoded bytes go to
// the driver, so apps resume drawing between bands rather than blocking
// for a whole frame. At most one band of pixels is resident at a time.
func (cs *CompressedScreen) FlushChunks() error {
	w := cs.size.Width
	for y := 0; y < cs.size.Height; y += cs.chunkHeight {
		h := min(cs.chunkHeight, cs.size.Height-y)
		band := make([]pixel.Color, w*h)
		chunkArea := Rect{X: 0, Y: y, Width: w, Height: h}

		_ = cs.gate.Flushing(func() error {
			for _, p := range cs.snapshotParts() {
				p.decodeInto(band, chunkArea)
			}
			return nil
		})

		encoded := rle.EncodeBand(band, w)
		if err := cs.chunks.WriteChunk(y, h, encoded); err != nil {
			return &DriverError{Err: err}
		}
	}
	return nil
}

// FlushLoop runs FlushChunks on an interval until ctx is done or a
// transfer fails.
func (cs *CompressedScreen) FlushLoop(ctx context.Context, interval time.Duration) error {
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
			if err := cs.FlushChunks(); err != nil {
				cs.log.Error("display: chunk flush failed", "err", err)
				return err
			}
		}
	}
}

// CompressedPartition is the access handle on a compressed screen. The
// partition's pixels live only in its RLE run list; writes split and merge
// runs in place. Coordinates are partition-relative, out-of-partition
// writes are rejected exactly as on the uncompressed handle.
type CompressedPartition struct {
	info PartitionInfo
	buf  *rle.Buffer
	gate *Gate
}

// ID returns the registry identity of the partition.
func (p *CompressedPartition) ID() PartitionID {
	return p.info.ID
}

// Owner returns the owning app's name.
func (p *CompressedPartition) Owner() string {
	return p.info.Owner
}

// Area returns the partition's rectangle in display coordinates.
func (p *CompressedPartition) Area() Rect {
	return p.info.Area
}

// Size returns the partition dimensions.
func (p *CompressedPartition) Size() Size {
	return p.info.Area.Size()
}

func (p *CompressedPartition) contains(pt Point) bool {
	return pt.X >= 0 && pt.X < p.info.Area.Width && pt.Y >= 0 && pt.Y < p.info.Area.Height
}

// WritePixel sets one pixel, rejecting points outside the partition.
func (p *CompressedPartition) WritePixel(pt Point, c pixel.Color) error {
	if !p.contains(pt) {
		return fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, pt, p.info.Area.Width, p.info.Area.Height)
	}
	p.gate.Drawing(func() {
		p.buf.Set(pt.X, pt.Y, c)
	})
	return nil
}

// ReadPixel returns the current color at a point inside the partition.
func (p *CompressedPartition) ReadPixel(pt Point) (pixel.Color, error) {
	if !p.contains(pt) {
		return 0, fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, pt, p.info.Area.Width, p.info.Area.Height)
	}
	var c pixel.Color
	p.gate.Drawing(func() {
		c = p.buf.At(pt.Y*p.info.Area.Width + pt.X)
	})
	return c, nil
}

// Fill fills a partition-relative rect in one gate acquisition.
func (p *CompressedPartition) Fill(r Rect, c pixel.Color) error {
	bounds := Rect{Width: p.info.Area.Width, Height: p.info.Area.Height}
	if !r.In(bounds) {
		return fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, r, p.info.Area.Width, p.info.Area.Height)
	}
	p.gate.Drawing(func() {
		if r == bounds {
			p.buf.Fill(c)
			return
		}
		for y := r.Y; y < r.Y+r.Height; y++ {
			for x := r.X; x < r.X+r.Width; x++ {
				p.buf.Set(x, y, c)
			}
		}
	})
	return nil
}

// Clear resets the whole partition to one color: a single run.
func (p *CompressedPartition) Clear(c pixel.Color) error {
	return p.Fill(Rect{Width: p.info.Area.Width, Height: p.info.Area.Height}, c)
}

// Canvas returns a draw.Image view of the partition.
func (p *CompressedPartition) Canvas() *Canvas {
	return &Canvas{target: p}
}

// decodeInto decodes this partition's overlap with chunkArea into the
// band buffer. Caller holds the gate exclusively. The overlap is one
// contiguous index range in the partition buffer because chunks span the
// full display width.
func (p *CompressedPartition) decodeInto(band []pixel.Color, chunkArea Rect) {
	inter := p.info.Area.Intersection(chunkArea)
	if inter.Empty() {
		return
	}
	firstRow := inter.Y - p.info.Area.Y
	start := firstRow * p.info.Area.Width
	n := inter.Height * p.info.Area.Width
	scratch := make([]pixel.Color, n)
	p.buf.DecodeRange(start, n, scratch)

	for row := 0; row < inter.Height; row++ {
		dst := (inter.Y-chunkArea.Y+row)*chunkArea.Width + inter.X
		src := row * p.info.Area.Width
		copy(band[dst:dst+inter.Width], scratch[src:src+inter.Width])
	}
}
