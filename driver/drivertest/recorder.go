// Package drivertest provides an in-memory driver for tests.
package drivertest

import (
	"fmt"
	"sync"

	"github.com/muralkit/mural/pixel"
	"github.com/muralkit/mural/rle"
)

// Chunk is one recorded band transfer.
type Chunk struct {
	Y       int
	Height  int
	Encoded []byte
}

// Recorder implements driver.Driver, driver.RectWriter and
// driver.ChunkWriter against an in-memory frame. Transfer failures can be
// injected through FailNext.
type Recorder struct {
	mu sync.Mutex

	width  int
	height int
	frame  []pixel.Color

	Flushes     int
	RectFlushes int
	Chunks      []Chunk
	Closed      bool

	failNext error
}

// New creates a recorder with the given display bounds.
func New(width, height int) *Recorder {
	return &Recorder{
		width:  width,
		height: height,
		frame:  make([]pixel.Color, width*height),
	}
}

// Size implements driver.Driver.
func (r *Recorder) Size() (int, int) {
	return r.width, r.height
}

// FailNext makes the next transfer (of any kind) return err.
func (r *Recorder) FailNext(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

func (r *Recorder) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

// Flush implements driver.Driver.
func (r *Recorder) Flush(pixels []pixel.Color, width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if width != r.width || height != r.height {
		return fmt.Errorf("drivertest: frame is %dx%d, display is %dx%d", width, height, r.width, r.height)
	}
	copy(r.frame, pixels)
	r.Flushes++
	return nil
}

// FlushRect implements driver.RectWriter.
func (r *Recorder) FlushRect(x, y, width, height int, pixels []pixel.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	if x < 0 || y < 0 || x+width > r.width || y+height > r.height {
		return fmt.Errorf("drivertest: rect (%d,%d %dx%d) outside display", x, y, width, height)
	}
	for row := 0; row < height; row++ {
		src := pixels[row*width : (row+1)*width]
		copy(r.frame[(y+row)*r.width+x:], src)
	}
	r.RectFlushes++
	return nil
}

// WriteChunk implements driver.ChunkWriter, decoding the band per the rle
// wire contract into the recorded frame.
func (r *Recorder) WriteChunk(y, height int, encoded []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	band, err := rle.DecodeBand(encoded, r.width)
	if err != nil {
		return err
	}
	if len(band) != r.width*height {
		return fmt.Errorf("drivertest: chunk decoded to %d pixels, expected %d", len(band), r.width*height)
	}
	if y < 0 || y+height > r.height {
		return fmt.Errorf("drivertest: chunk rows [%d,%d) outside display", y, y+height)
	}
	copy(r.frame[y*r.width:], band)
	r.Chunks = append(r.Chunks, Chunk{Y: y, Height: height, Encoded: append([]byte(nil), encoded...)})
	return nil
}

// Close implements driver.Driver.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Closed = true
	return nil
}

// Pixel returns the recorded color at (x, y).
func (r *Recorder) Pixel(x, y int) pixel.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame[y*r.width+x]
}

// Frame returns a copy of the recorded frame.
func (r *Recorder) Frame() []pixel.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pixel.Color, len(r.frame))
	copy(out, r.frame)
	return out
}
