package display

import (
	"fmt"

	"github.com/muralkit/mural/pixel"
)

// Partition is an app's access handle into the shared buffer: a capability
// bound to exactly one reserved rectangle, granting writes and reads inside
// it and nothing else. Coordinates are partition-relative; (0,0) is the
// partition's top-left corner.
//
// Every operation holds the gate in shared mode, so draws from disjoint
// apps proceed in parallel but never interleave with a flush.
type Partition struct {
	info   PartitionInfo
	buffer *Buffer
	gate   *Gate
}

// ID returns the registry identity of the partition.
func (p *Partition) ID() PartitionID {
	return p.info.ID
}

// Owner returns the owning app's name.
func (p *Partition) Owner() string {
	return p.info.Owner
}

// Area returns the partition's rectangle in display coordinates.
func (p *Partition) Area() Rect {
	return p.info.Area
}

// Size returns the partition dimensions.
func (p *Partition) Size() Size {
	return p.info.Area.Size()
}

func (p *Partition) contains(pt Point) bool {
	return pt.X >= 0 && pt.X < p.info.Area.Width && pt.Y >= 0 && pt.Y < p.info.Area.Height
}

// WritePixel sets one pixel. Points outside the partition are rejected
// with ErrOutOfPartition, never clipped: partition isolation over
// convenience.
func (p *Partition) WritePixel(pt Point, c pixel.Color) error {
	if !p.contains(pt) {
		return fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, pt, p.info.Area.Width, p.info.Area.Height)
	}
	p.gate.Drawing(func() {
		p.buffer.Set(p.info.Area.X+pt.X, p.info.Area.Y+pt.Y, c)
	})
	return nil
}

// ReadPixel returns the current color at a point inside the partition.
func (p *Partition) ReadPixel(pt Point) (pixel.Color, error) {
	if !p.contains(pt) {
		return 0, fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, pt, p.info.Area.Width, p.info.Area.Height)
	}
	var c pixel.Color
	p.gate.Drawing(func() {
		c = p.buffer.Get(p.info.Area.X+pt.X, p.info.Area.Y+pt.Y)
	})
	return c, nil
}

// Fill fills a partition-relative rect in one gate acquisition. The whole
// rect must lie inside the partition or nothing is drawn.
func (p *Partition) Fill(r Rect, c pixel.Color) error {
	if !r.In(Rect{Width: p.info.Area.Width, Height: p.info.Area.Height}) {
		return fmt.Errorf("%w: %+v in %dx%d partition", ErrOutOfPartition, r, p.info.Area.Width, p.info.Area.Height)
	}
	p.gate.Drawing(func() {
		p.buffer.Fill(Rect{
			X:      p.info.Area.X + r.X,
			Y:      p.info.Area.Y + r.Y,
			Width:  r.Width,
			Height: r.Height,
		}, c)
	})
	return nil
}

// Clear fills the whole partition with one color.
func (p *Partition) Clear(c pixel.Color) error {
	return p.Fill(Rect{Width: p.info.Area.Width, Height: p.info.Area.Height}, c)
}

// Canvas returns a draw.Image view of the partition.
func (p *Partition) Canvas() *Canvas {
	return &Canvas{target: p}
}
