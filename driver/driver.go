// Package driver defines the boundary between the display core and the
// hardware (or simulated) display it flushes to.
package driver

import "github.com/muralkit/mural/pixel"

// Driver transfers pixel data to a physical display. Implementations own
// retry and backoff policy; the core reports transfer failures upward but
// never retries.
type Driver interface {
	// Size returns the display bounds in pixels.
	Size() (width, height int)
	// Flush transfers a full row-major frame.
	Flush(pixels []pixel.Color, width, height int) error
	// Close releases the underlying device.
	Close() error
}

// RectWriter is an optional optimization for partial updates. The pixels
// slice is row-major and must have width*height entries.
type RectWriter interface {
	FlushRect(x, y, width, height int, pixels []pixel.Color) error
}

// ChunkWriter receives the compressed flush path's output: one full-width
// band at a time, RLE-encoded per the rle package's wire format. The decoder
// must write each run at the current cursor and advance left to right, then
// top to bottom, matching encode order exactly.
type ChunkWriter interface {
	WriteChunk(y, height int, encoded []byte) error
}
