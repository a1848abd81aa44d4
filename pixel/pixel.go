// Package pixel defines the native RGB565 pixel format shared by the
// display core, the RLE codec, and drivers.
package pixel

import "image/color"

// Color is a single pixel in RGB565 layout: 5 bits red, 6 bits green,
// 5 bits blue. This is the wire format most small displays speak natively,
// so the framebuffer stores it directly.
type Color uint16

// Named colors.
const (
	Black   Color = 0x0000
	White   Color = 0xFFFF
	Red     Color = 0xF800
	Green   Color = 0x07E0
	Blue    Color = 0x001F
	Yellow  Color = Red | Green
	Cyan    Color = Green | Blue
	Magenta Color = Red | Blue
)

// New packs 8-bit channels into an RGB565 color.
func New(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// R returns the red channel widened back to 8 bits.
func (c Color) R() uint8 {
	r := uint8(c >> 11)
	return r<<3 | r>>2
}

// G returns the green channel widened back to 8 bits.
func (c Color) G() uint8 {
	g := uint8(c >> 5 & 0x3F)
	return g<<2 | g>>4
}

// B returns the blue channel widened back to 8 bits.
func (c Color) B() uint8 {
	b := uint8(c & 0x1F)
	return b<<3 | b>>2
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R())
	r |= r << 8
	g = uint32(c.G())
	g |= g << 8
	b = uint32(c.B())
	b |= b << 8
	return r, g, b, 0xFFFF
}

// Model converts arbitrary colors to RGB565.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	return From(c)
})

// From converts any color.Color to RGB565, quantizing to 5/6/5 bits.
func From(c color.Color) Color {
	if cc, ok := c.(Color); ok {
		return cc
	}
	r, g, b, _ := c.RGBA()
	return New(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
