// Package mask provides the binary conductor mask shared by the segmenter and
// the connectivity resolver.
package mask

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"pcb-netlist/pkg/colorutil"
	"pcb-netlist/pkg/geometry"
)

// Mask is an immutable W x H binary grid. A set cell is conductor, a clear
// cell is background.
type Mask struct {
	width  int
	height int
	cells  []bool
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Bounds returns the mask frame as a rectangle at the origin.
func (m *Mask) Bounds() geometry.RectInt {
	return geometry.NewRectInt(0, 0, m.width, m.height)
}

// At reports whether (x, y) is conductor. Out-of-range coordinates are background.
func (m *Mask) At(x, y int) bool {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return false
	}
	return m.cells[y*m.width+x]
}

// Count returns the number of conductor pixels.
func (m *Mask) Count() int {
	n := 0
	for _, c := range m.cells {
		if c {
			n++
		}
	}
	return n
}

// AnyIn reports whether r (clipped to the mask) contains a conductor pixel.
func (m *Mask) AnyIn(r geometry.RectInt) bool {
	r = r.Intersect(m.Bounds())
	for y := r.Y; y < r.Bottom(); y++ {
		row := m.cells[y*m.width : (y+1)*m.width]
		for x := r.X; x < r.Right(); x++ {
			if row[x] {
				return true
			}
		}
	}
	return false
}

// Equal reports whether two masks have the same size and cells.
func (m *Mask) Equal(other *Mask) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.width != other.width || m.height != other.height {
		return false
	}
	for i := range m.cells {
		if m.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// ToGray renders the mask as a grayscale image: conductor white, background black.
func (m *Mask) ToGray() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, c := range m.cells {
		if c {
			out.Pix[i] = colorutil.Conductor.Y
		} else {
			out.Pix[i] = colorutil.Background.Y
		}
	}
	return out
}

// WritePNG encodes the mask as a PNG diagnostic image.
func (m *Mask) WritePNG(w io.Writer) error {
	if err := png.Encode(w, m.ToGray()); err != nil {
		return fmt.Errorf("encode mask: %w", err)
	}
	return nil
}

func (m *Mask) String() string {
	return fmt.Sprintf("mask %dx%d (%d conductor pixels)", m.width, m.height, m.Count())
}

// Builder assembles a Mask. It is the only mutable form; Build hands out an
// independent copy so later edits never leak into a built mask.
type Builder struct {
	width  int
	height int
	cells  []bool
}

// NewBuilder creates an all-background builder of the given size.
// Non-positive dimensions produce an empty builder.
func NewBuilder(width, height int) *Builder {
	width, height = max(width, 0), max(height, 0)
	return &Builder{width: width, height: height, cells: make([]bool, width*height)}
}

// Set marks (x, y) as conductor or background. Out-of-range writes are ignored.
func (b *Builder) Set(x, y int, conductor bool) *Builder {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y*b.width+x] = conductor
	}
	return b
}

// FillRect sets every pixel of r (clipped to the frame).
func (b *Builder) FillRect(r geometry.RectInt, conductor bool) *Builder {
	r = r.Intersect(geometry.NewRectInt(0, 0, b.width, b.height))
	for y := r.Y; y < r.Bottom(); y++ {
		for x := r.X; x < r.Right(); x++ {
			b.cells[y*b.width+x] = conductor
		}
	}
	return b
}

// Build returns an immutable snapshot of the builder.
func (b *Builder) Build() *Mask {
	cells := make([]bool, len(b.cells))
	copy(cells, b.cells)
	return &Mask{width: b.width, height: b.height, cells: cells}
}

// FromBytes builds a mask from a row-major byte grid; any non-zero byte is conductor.
func FromBytes(width, height int, data []uint8) (*Mask, error) {
	if width <= 0 || height <= 0 || len(data) < width*height {
		return nil, fmt.Errorf("mask data: %d bytes for %dx%d", len(data), width, height)
	}
	cells := make([]bool, width*height)
	for i := range cells {
		cells[i] = data[i] != 0
	}
	return &Mask{width: width, height: height, cells: cells}, nil
}
