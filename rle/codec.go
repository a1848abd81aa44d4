package rle

import (
	"encoding/binary"
	"fmt"

	"github.com/muralkit/mural/pixel"
)

// Wire format: per scanline, an ordered sequence of 4-byte records, each a
// big-endian RGB565 color followed by a big-endian run length. Lengths are
// at least 1 and never exceed the scanline width: runs are scanline-local,
// so a chunk boundary can never bisect a run.
const recordLen = 4

// MaxEncodedLen returns the worst-case encoded size of a width*height band
// (one run per pixel).
func MaxEncodedLen(width, height int) int {
	return width * height * recordLen
}

// EncodeBand encodes a full-width band of pixels scanline by scanline.
// len(pixels) must be a multiple of width.
func EncodeBand(pixels []pixel.Color, width int) []byte {
	if width <= 0 || len(pixels)%width != 0 {
		panic(fmt.Sprintf("rle: band of %d pixels is not a whole number of %d-wide scanlines", len(pixels), width))
	}
	out := make([]byte, 0, len(pixels)/2*recordLen)
	for rowStart := 0; rowStart < len(pixels); rowStart += width {
		line := pixels[rowStart : rowStart+width]
		runStart := 0
		for x := 1; x <= width; x++ {
			if x < width && line[x] == line[runStart] {
				continue
			}
			out = binary.BigEndian.AppendUint16(out, uint16(line[runStart]))
			out = binary.BigEndian.AppendUint16(out, uint16(x-runStart))
			runStart = x
		}
	}
	return out
}

// DecodeBand decodes an encoded band back into pixels. The cursor advances
// left to right, then top to bottom, exactly reversing encode order; this is
// the contract a driver-side decoder must satisfy. Returns an error for
// truncated records, zero-length runs, runs crossing a scanline boundary,
// or a band that does not end on a scanline boundary.
func DecodeBand(data []byte, width int) ([]pixel.Color, error) {
	if width <= 0 {
		return nil, fmt.Errorf("rle: invalid scanline width %d", width)
	}
	if len(data)%recordLen != 0 {
		return nil, fmt.Errorf("rle: truncated run record (%d trailing bytes)", len(data)%recordLen)
	}
	out := make([]pixel.Color, 0, width)
	for off := 0; off < len(data); off += recordLen {
		c := pixel.Color(binary.BigEndian.Uint16(data[off:]))
		n := int(binary.BigEndian.Uint16(data[off+2:]))
		if n == 0 {
			return nil, fmt.Errorf("rle: zero-length run at offset %d", off)
		}
		if len(out)%width+n > width {
			return nil, fmt.Errorf("rle: run of %d at offset %d crosses a scanline boundary", n, off)
		}
		for i := 0; i < n; i++ {
			out = append(out, c)
		}
	}
	if len(out)%width != 0 {
		return nil, fmt.Errorf("rle: band ends mid-scanline (%d pixels, width %d)", len(out), width)
	}
	return out, nil
}
