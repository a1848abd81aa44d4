// Package rle implements run-length-encoded pixel storage and the
// scanline-delimited wire codec used on the driver boundary.
package rle

import (
	"fmt"

	"github.com/muralkit/mural/pixel"
)

// Run is one contiguous sequence of identical pixels.
type Run struct {
	Color  pixel.Color
	Length int
}

// Buffer is an RLE-resident pixel store for a single partition. It holds
// runs instead of pixels, so a mostly-uniform partition costs a handful of
// entries rather than width*height colors. Single-pixel writes split the
// containing run and re-merge with equal-colored neighbors, keeping the
// run list minimal.
//
// Buffer is not safe for concurrent use; the display core serializes
// access through its gate.
type Buffer struct {
	runs   []Run
	width  int
	height int
}

// NewBuffer creates a buffer of width*height pixels filled with one color.
func NewBuffer(width, height int, fill pixel.Color) *Buffer {
	b := &Buffer{width: width, height: height}
	b.Fill(fill)
	return b
}

// Len returns the number of pixels the buffer encodes.
func (b *Buffer) Len() int {
	return b.width * b.height
}

// Fill resets the buffer to a single run of one color.
func (b *Buffer) Fill(c pixel.Color) {
	b.runs = append(b.runs[:0], Run{Color: c, Length: b.Len()})
}

// Set writes the pixel at (x, y).
func (b *Buffer) Set(x, y int, c pixel.Color) {
	b.SetAt(y*b.width+x, c)
}

// At returns the pixel at linear index i.
func (b *Buffer) At(i int) pixel.Color {
	k, _ := b.find(i)
	return b.runs[k].Color
}

// SetAt writes the pixel at linear index i, splitting the containing run
// and merging with equal-colored neighbors.
func (b *Buffer) SetAt(i int, c pixel.Color) {
	k, start := b.find(i)
	run := b.runs[k]
	if run.Color == c {
		return
	}

	before := i - start
	after := start + run.Length - i - 1

	repl := make([]Run, 0, 3)
	if before > 0 {
		repl = append(repl, Run{Color: run.Color, Length: before})
	}
	newIdx := k + len(repl)
	repl = append(repl, Run{Color: c, Length: 1})
	if after > 0 {
		repl = append(repl, Run{Color: run.Color, Length: after})
	}

	tail := append(repl, b.runs[k+1:]...)
	b.runs = append(b.runs[:k], tail...)
	b.coalesce(newIdx)
}

// DecodeRange decodes n pixels starting at linear index start into dst.
// dst must hold at least n colors. This is the band-extraction primitive of
// the chunked flush path: a full-width chunk intersects a partition in one
// contiguous index range, so a single range decode covers it.
func (b *Buffer) DecodeRange(start, n int, dst []pixel.Color) {
	if n == 0 {
		return
	}
	k, runStart := b.find(start)
	copied := 0
	for copied < n {
		run := b.runs[k]
		from := start + copied - runStart
		count := min(run.Length-from, n-copied)
		for j := 0; j < count; j++ {
			dst[copied+j] = run.Color
		}
		copied += count
		runStart += run.Length
		k++
	}
}

// Runs returns a copy of the current run list.
func (b *Buffer) Runs() []Run {
	out := make([]Run, len(b.runs))
	copy(out, b.runs)
	return out
}

// Integrity verifies the buffer still encodes exactly width*height pixels
// in minimal form: positive run lengths, no adjacent runs of equal color.
func (b *Buffer) Integrity() error {
	total := 0
	for i, r := range b.runs {
		if r.Length <= 0 {
			return fmt.Errorf("rle: run %d has length %d", i, r.Length)
		}
		if i > 0 && b.runs[i-1].Color == r.Color {
			return fmt.Errorf("rle: adjacent runs %d and %d share color %04x", i-1, i, r.Color)
		}
		total += r.Length
	}
	if want := b.Len(); total != want {
		return fmt.Errorf("rle: runs encode %d pixels, expected %d", total, want)
	}
	return nil
}

// find returns the index of the run containing pixel i and the linear
// index of that run's first pixel.
func (b *Buffer) find(i int) (k, start int) {
	if i < 0 || i >= b.Len() {
		panic(fmt.Sprintf("rle: pixel index %d out of range [0,%d)", i, b.Len()))
	}
	for k, r := range b.runs {
		if i < start+r.Length {
			return k, start
		}
		start += r.Length
	}
	panic(fmt.Sprintf("rle: no run contains pixel index %d", i))
}

// coalesce merges the run at k with equal-colored neighbors.
func (b *Buffer) coalesce(k int) {
	if k > 0 && b.runs[k-1].Color == b.runs[k].Color {
		b.runs[k-1].Length += b.runs[k].Length
		b.runs = append(b.runs[:k], b.runs[k+1:]...)
		k--
	}
	if k+1 < len(b.runs) && b.runs[k].Color == b.runs[k+1].Color {
		b.runs[k].Length += b.runs[k+1].Length
		b.runs = append(b.runs[:k+1], b.runs[k+2:]...)
	}
}
