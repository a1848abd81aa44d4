package main

import (
	"context"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/muralkit/mural/display"
	"github.com/muralkit/mural/pixel"
)

// surface is the slice of the handle API the demo apps need; both
// display.Partition and display.CompressedPartition provide it.
type surface interface {
	WritePixel(p display.Point, c pixel.Color) error
	Fill(r display.Rect, c pixel.Color) error
	Clear(c pixel.Color) error
	Size() display.Size
}

// gradientApp sweeps an HSV hue gradient across its partition.
func gradientApp(ctx context.Context, p surface) error {
	size := p.Size()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	offset := 0.0
	for {
		for y := 0; y < size.Height; y++ {
			hue := offset + 360.0*float64(y)/float64(size.Height)
			for hue >= 360 {
				hue -= 360
			}
			c := pixel.From(colorful.Hsv(hue, 1, 1))
			if err := p.Fill(display.Rect{X: 0, Y: y, Width: size.Width, Height: 1}, c); err != nil {
				return err
			}
		}
		offset += 7
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// bouncerApp bounces a small box around its partition.
func bouncerApp(ctx context.Context, p surface) error {
	size := p.Size()
	const box = 4
	x, y := 0, 0
	dx, dy := 1, 1

	ticker := time.NewTicker(30 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := p.Clear(pixel.Black); err != nil {
			return err
		}
		if err := p.Fill(display.Rect{X: x, Y: y, Width: box, Height: box}, pixel.Green); err != nil {
			return err
		}
		x += dx
		y += dy
		if x <= 0 || x+box >= size.Width {
			dx = -dx
		}
		if y <= 0 || y+box >= size.Height {
			dy = -dy
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
