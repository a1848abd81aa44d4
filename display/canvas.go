package display

import (
	"fmt"
	"image"
	"image/color"

	"github.com/muralkit/mural/pixel"
)

// PixelTarget is the capability set a Canvas draws through. Both Partition
// and CompressedPartition satisfy it, so drawing code is unaware which
// buffer variant, or that it is partition-scoped at all.
type PixelTarget interface {
	WritePixel(p Point, c pixel.Color) error
	ReadPixel(p Point) (pixel.Color, error)
	Size() Size
}

// Canvas adapts a partition handle to draw.Image so the stdlib image/draw
// machinery, golang.org/x/image and fogleman/gg render straight into the
// partition.
//
// draw.Image cannot return errors from Set, so writes outside the
// partition are dropped and the first rejection is kept; callers that care
// check Err after drawing.
type Canvas struct {
	target PixelTarget
	err    error
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model {
	return pixel.Model
}

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle {
	s := c.target.Size()
	return image.Rect(0, 0, s.Width, s.Height)
}

// At implements image.Image. Out-of-bounds reads return black.
func (c *Canvas) At(x, y int) color.Color {
	px, err := c.target.ReadPixel(Point{X: x, Y: y})
	if err != nil {
		return pixel.Black
	}
	return px
}

// Set implements draw.Image.
func (c *Canvas) Set(x, y int, col color.Color) {
	if err := c.target.WritePixel(Point{X: x, Y: y}, pixel.From(col)); err != nil {
		if c.err == nil {
			c.err = fmt.Errorf("canvas set (%d,%d): %w", x, y, err)
		}
	}
}

// Err returns the first rejected write since the last call, then resets.
func (c *Canvas) Err() error {
	err := c.err
	c.err = nil
	return err
}
