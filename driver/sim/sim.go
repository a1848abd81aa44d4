// Package sim is a terminal-backed display driver for developing apps
// without hardware. Each terminal cell holds two vertically stacked
// pixels, drawn with the upper-half-block glyph: foreground is the upper
// pixel, background the lower.
package sim

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/muralkit/mural/pixel"
	"github.com/muralkit/mural/rle"
)

const halfBlock = '▀'

// Display implements driver.Driver, driver.RectWriter and
// driver.ChunkWriter on top of a tcell screen. Bounds are fixed at
// construction from the terminal size.
type Display struct {
	mu     sync.Mutex
	screen tcell.Screen
	width  int
	height int
	// frame keeps the last flushed pixels so rect and chunk writes can
	// repaint a cell whose other half they do not cover.
	frame []pixel.Color
}

// New opens a simulator display on the current terminal.
func New() (*Display, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()
	screen.Clear()

	cols, rows := screen.Size()
	return &Display{
		screen: screen,
		width:  cols,
		height: rows * 2,
		frame:  make([]pixel.Color, cols*rows*2),
	}, nil
}

// Size implements driver.Driver.
func (d *Display) Size() (int, int) {
	return d.width, d.height
}

// Flush implements driver.Driver.
func (d *Display) Flush(pixels []pixel.Color, width, height int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(d.frame, pixels[:min(len(pixels), len(d.frame))])
	for y := 0; y < d.height; y += 2 {
		d.paintRowLocked(y, 0, d.width)
	}
	d.screen.Show()
	return nil
}

// FlushRect implements driver.RectWriter.
func (d *Display) FlushRect(x, y, width, height int, pixels []pixel.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for row := 0; row < height; row++ {
		copy(d.frame[(y+row)*d.width+x:], pixels[row*width:(row+1)*width])
	}
	// Repaint whole cell rows covering the touched pixel rows.
	for cellRow := y &^ 1; cellRow < y+height; cellRow += 2 {
		d.paintRowLocked(cellRow, x, x+width)
	}
	d.screen.Show()
	return nil
}

// WriteChunk implements driver.ChunkWriter by decoding the band per the
// rle wire contract.
func (d *Display) WriteChunk(y, height int, encoded []byte) error {
	band, err := rle.DecodeBand(encoded, d.width)
	if err != nil {
		return err
	}
	if len(band) != d.width*height {
		return fmt.Errorf("sim: chunk decodes to %d pixels, expected %d", len(band), d.width*height)
	}
	return d.FlushRect(0, y, d.width, height, band)
}

// paintRowLocked repaints the terminal cells for pixel rows y and y+1 in
// the column range [x0, x1).
func (d *Display) paintRowLocked(y, x0, x1 int) {
	for x := x0; x < x1; x++ {
		upper := d.frame[y*d.width+x]
		lower := pixel.Black
		if y+1 < d.height {
			lower = d.frame[(y+1)*d.width+x]
		}
		style := tcell.StyleDefault.
			Foreground(tcell.NewRGBColor(int32(upper.R()), int32(upper.G()), int32(upper.B()))).
			Background(tcell.NewRGBColor(int32(lower.R()), int32(lower.G()), int32(lower.B())))
		d.screen.SetContent(x, y/2, halfBlock, nil, style)
	}
}

// WaitQuit blocks until the user presses Esc, q or Ctrl+C.
func (d *Display) WaitQuit() {
	for {
		ev := d.screen.PollEvent()
		switch e := ev.(type) {
		case *tcell.EventKey:
			if e.Key() == tcell.KeyEscape || e.Key() == tcell.KeyCtrlC || e.Rune() == 'q' {
				return
			}
		case nil:
			return
		}
	}
}

// Close implements driver.Driver.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screen.Fini()
	return nil
}
