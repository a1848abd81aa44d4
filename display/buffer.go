package display

import (
	"sync"

	"github.com/muralkit/mural/pixel"
)

// Buffer is the full-resolution pixel store backing a Screen. It is owned
// by the toolkit; apps only ever write through Partition handles, whose
// areas are disjoint by the registry invariant, so concurrent cell writes
// never touch the same index. Dirty-tracking metadata is shared by all
// writers and guarded by its own mutex.
//
// Dirty tracking uses a generation marker per cell plus a bounding rect,
// so the flush path can push only changed rows to the driver.
type Buffer struct {
	cells  []pixel.Color
	width  int
	height int

	mu         sync.Mutex
	dirtyStamp []uint32
	dirtyGen   uint32
	dirtyAll   bool
	dirtyCount int
	dirtyRect  Rect
}

// NewBuffer creates a buffer with the given dimensions, filled with black.
func NewBuffer(w, h int) *Buffer {
	return &Buffer{
		cells:      make([]pixel.Color, w*h),
		dirtyStamp: make([]uint32, w*h),
		dirtyGen:   1,
		width:      w,
		height:     h,
	}
}

// Size returns the buffer dimensions.
func (b *Buffer) Size() (w, h int) {
	return b.width, b.height
}

// Get returns the pixel at (x, y), or black if out of bounds.
func (b *Buffer) Get(x, y int) pixel.Color {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0
	}
	return b.cells[y*b.width+x]
}

// Set writes a pixel at (x, y). No-op if out of bounds; bound enforcement
// with rejection lives in the Partition handle. Marks the cell dirty only
// if its value changed.
func (b *Buffer) Set(x, y int, c pixel.Color) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	idx := y*b.width + x
	if b.cells[idx] != c {
		b.cells[idx] = c
		b.markCellDirty(x, y, idx)
	}
}

// Fill fills a rectangular region, clipped to the buffer bounds.
func (b *Buffer) Fill(r Rect, c pixel.Color) {
	x0 := max(0, r.X)
	y0 := max(0, r.Y)
	x1 := min(b.width, r.X+r.Width)
	y1 := min(b.height, r.Y+r.Height)

	for y := y0; y < y1; y++ {
		idx := y*b.width + x0
		for x := x0; x < x1; x++ {
			if b.cells[idx] != c {
				b.cells[idx] = c
				b.markCellDirty(x, y, idx)
			}
			idx++
		}
	}
}

// Pixels returns the underlying row-major pixel slice. Only the flush path
// reads it, and only while holding the gate exclusively.
func (b *Buffer) Pixels() []pixel.Color {
	return b.cells
}

func (b *Buffer) markCellDirty(x, y, idx int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirtyAll || b.dirtyStamp[idx] == b.dirtyGen {
		return
	}
	b.dirtyStamp[idx] = b.dirtyGen
	b.dirtyCount++

	if b.dirtyCount == 1 {
		b.dirtyRect = Rect{X: x, Y: y, Width: 1, Height: 1}
		return
	}
	if x < b.dirtyRect.X {
		b.dirtyRect.Width += b.dirtyRect.X - x
		b.dirtyRect.X = x
	} else if x >= b.dirtyRect.X+b.dirtyRect.Width {
		b.dirtyRect.Width = x - b.dirtyRect.X + 1
	}
	if y < b.dirtyRect.Y {
		b.dirtyRect.Height += b.dirtyRect.Y - y
		b.dirtyRect.Y = y
	} else if y >= b.dirtyRect.Y+b.dirtyRect.Height {
		b.dirtyRect.Height = y - b.dirtyRect.Y + 1
	}
}

// MarkAllDirty marks the entire buffer as dirty.
func (b *Buffer) MarkAllDirty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirtyAll = true
	b.dirtyCount = b.width * b.height
	b.dirtyRect = Rect{X: 0, Y: 0, Width: b.width, Height: b.height}
}

// ClearDirty resets all dirty state.
func (b *Buffer) ClearDirty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dirtyAll = false
	b.dirtyCount = 0
	b.dirtyRect = Rect{}
	b.dirtyGen++
	if b.dirtyGen == 0 {
		clear(b.dirtyStamp)
		b.dirtyGen = 1
	}
}

// TakeDirty drains the dirty state in one step: it returns the bounding
// box of cells changed since the last drain and whether anything changed
// at all, then resets. For flushes that transfer one rect instead of
// walking spans.
func (b *Buffer) TakeDirty() (Rect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.dirtyAll && b.dirtyCount == 0 {
		return Rect{}, false
	}
	rect := b.dirtyRect
	if b.dirtyAll {
		rect = Rect{X: 0, Y: 0, Width: b.width, Height: b.height}
	}
	b.dirtyAll = false
	b.dirtyCount = 0
	b.dirtyRect = Rect{}
	b.dirtyGen++
	if b.dirtyGen == 0 {
		clear(b.dirtyStamp)
		b.dirtyGen = 1
	}
	return rect, true
}

// IsDirty reports whether any cell changed since the last ClearDirty.
func (b *Buffer) IsDirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirtyAll || b.dirtyCount > 0
}

// DirtyCount returns the number of dirty cells.
func (b *Buffer) DirtyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirtyAll {
		return b.width * b.height
	}
	return b.dirtyCount
}

// DirtyRect returns the bounding box of dirty cells, or an empty rect.
func (b *Buffer) DirtyRect() Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dirtyAll {
		return Rect{X: 0, Y: 0, Width: b.width, Height: b.height}
	}
	return b.dirtyRect
}

// ForEachDirtySpan calls fn for each contiguous dirty span per row.
// Callers must hold the gate exclusively, so no writer mutates stamps
// while spans are walked.
func (b *Buffer) ForEachDirtySpan(fn func(y, startX, endX int)) {
	if b.dirtyAll {
		for y := 0; y < b.height; y++ {
			fn(y, 0, b.width)
		}
		return
	}
	if b.dirtyCount == 0 {
		return
	}
	rect := b.dirtyRect
	xEnd := min(b.width, rect.X+rect.Width)
	yEnd := min(b.height, rect.Y+rect.Height)
	for y := rect.Y; y < yEnd; y++ {
		rowStart := y * b.width
		x := rect.X
		for x < xEnd {
			if b.dirtyStamp[rowStart+x] != b.dirtyGen {
				x++
				continue
			}
			start := x
			for x < xEnd && b.dirtyStamp[rowStart+x] == b.dirtyGen {
				x++
			}
			fn(y, start, x)
		}
	}
}
