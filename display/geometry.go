package display

// Point is a pixel position.
type Point struct {
	X, Y int
}

// Size is a width and height in pixels.
type Size struct {
	Width, Height int
}

// Rect is a rectangular pixel region.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Size returns the rect's dimensions.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Contains reports whether p lies inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// In reports whether r lies fully inside outer.
func (r Rect) In(outer Rect) bool {
	if r.Empty() {
		return false
	}
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.X+r.Width <= outer.X+outer.Width &&
		r.Y+r.Height <= outer.Y+outer.Height
}

// Intersection returns the overlap of two rects, or a zero rect if they
// are disjoint.
func (r Rect) Intersection(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.X+r.Width, other.X+other.Width)
	y1 := min(r.Y+r.Height, other.Y+other.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Overlaps reports whether two rects share any pixel.
func (r Rect) Overlaps(other Rect) bool {
	return !r.Intersection(other).Empty()
}
