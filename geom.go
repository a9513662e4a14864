package ink

// Point is a position in surface coordinates. The origin is the top-left
// corner of the target; X grows rightward and Y grows downward.
type Point struct {
	X float32
	Y float32
}

// Pt returns the point (x, y).
func Pt(x, y float32) Point {
	return Point{X: x, Y: y}
}

// Rect is an axis-aligned rectangle described by its top-left corner and
// its extent. A rectangle with W <= 0 or H <= 0 is empty.
type Rect struct {
	X float32
	Y float32
	W float32
	H float32
}

// NewRect returns the rectangle with top-left corner (x, y), width w and
// height h.
func NewRect(x, y, w, h float32) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Empty reports whether the rectangle covers no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Right returns the X coordinate of the right edge (exclusive).
func (r Rect) Right() float32 {
	return r.X + r.W
}

// Bottom returns the Y coordinate of the bottom edge (exclusive).
func (r Rect) Bottom() float32 {
	return r.Y + r.H
}

// Intersect returns the intersection of r and other. Disjoint rectangles
// produce a zero-size result; negative extents are clamped to zero so the
// result is always representable as a (possibly empty) rectangle.
func (r Rect) Intersect(other Rect) Rect {
	x := max32(r.X, other.X)
	y := max32(r.Y, other.Y)
	w := min32(r.Right(), other.Right()) - x
	h := min32(r.Bottom(), other.Bottom()) - y
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Rect{X: x, Y: y, W: w, H: h}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
