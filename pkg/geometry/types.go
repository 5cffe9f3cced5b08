// Package geometry provides basic geometric types used throughout the application.
package geometry

import "fmt"

// PointInt represents a 2D point with integer (pixel) coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents an axis-aligned rectangle with integer coordinates.
// X, Y is the top-left pixel; the rectangle covers Width x Height pixels.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Right returns the exclusive right edge.
func (r RectInt) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r RectInt) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle covers no pixels.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns the number of pixels covered.
func (r RectInt) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Contains returns true if the pixel (x, y) lies inside the rectangle.
func (r RectInt) Contains(x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

// Within returns true if r lies completely inside outer. Sizes are compared
// against the room left in outer so huge widths cannot wrap around.
func (r RectInt) Within(outer RectInt) bool {
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.Width >= 0 && r.Height >= 0 &&
		r.Width <= outer.Right()-r.X && r.Height <= outer.Bottom()-r.Y
}

// Union returns the smallest rectangle containing both rectangles.
func (r RectInt) Union(other RectInt) RectInt {
	x := min(r.X, other.X)
	y := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return RectInt{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Intersect returns the overlap of two rectangles. The result is empty
// (zero width or height) when they do not overlap.
func (r RectInt) Intersect(other RectInt) RectInt {
	x := max(r.X, other.X)
	y := max(r.Y, other.Y)
	x2 := min(r.Right(), other.Right())
	y2 := min(r.Bottom(), other.Bottom())
	if x2 <= x || y2 <= y {
		return RectInt{X: x, Y: y}
	}
	return RectInt{X: x, Y: y, Width: x2 - x, Height: y2 - y}
}

// Expand grows the rectangle by n pixels on every side.
func (r RectInt) Expand(n int) RectInt {
	return RectInt{X: r.X - n, Y: r.Y - n, Width: r.Width + 2*n, Height: r.Height + 2*n}
}

// FromCenter builds a rectangle from a centre point and size, the box
// convention used by most object detectors.
func FromCenter(cx, cy, width, height int) RectInt {
	return RectInt{X: cx - width/2, Y: cy - height/2, Width: width, Height: height}
}

// PerimeterPoints walks the border pixels of the rectangle clockwise from the
// top-left corner and returns every step-th pixel. Corners are always
// included so thin boxes are still sampled at their ends.
func (r RectInt) PerimeterPoints(step int) []PointInt {
	if r.Empty() {
		return nil
	}
	if step < 1 {
		step = 1
	}

	x0, y0 := r.X, r.Y
	x1, y1 := r.Right()-1, r.Bottom()-1

	// Border pixels in clockwise order, without repeating corners.
	var border []PointInt
	for x := x0; x <= x1; x++ {
		border = append(border, PointInt{x, y0})
	}
	for y := y0 + 1; y <= y1; y++ {
		border = append(border, PointInt{x1, y})
	}
	if y1 > y0 {
		for x := x1 - 1; x >= x0; x-- {
			border = append(border, PointInt{x, y1})
		}
	}
	if x1 > x0 {
		for y := y1 - 1; y > y0; y-- {
			border = append(border, PointInt{x0, y})
		}
	}

	corners := map[PointInt]bool{
		{x0, y0}: true, {x1, y0}: true, {x1, y1}: true, {x0, y1}: true,
	}

	points := make([]PointInt, 0, len(border)/step+4)
	for i, p := range border {
		if i%step == 0 || corners[p] {
			points = append(points, p)
		}
	}
	return points
}

func (r RectInt) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}
