// Package board holds the inputs of an analysis run: the captured board image
// and the component regions reported by the detector.
package board

import (
	"fmt"
	"image"
)

// Channels is the number of color channels in a board image.
const Channels = 3

// Image is an immutable RGB raster, 8 bits per channel, origin at top-left.
// Nothing in the pipeline mutates it after construction.
type Image struct {
	width  int
	height int
	pix    []uint8 // row-major RGB triples
}

// NewImage builds an Image from raw interleaved pixel data. The buffer is
// copied, so the caller may reuse it.
func NewImage(width, height, channels int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("zero area (%dx%d)", width, height)}
	}
	if channels != Channels {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("unsupported channel count %d", channels)}
	}
	need := width * height * Channels
	if len(pix) < need {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("pixel buffer has %d bytes, need %d", len(pix), need)}
	}

	buf := make([]uint8, need)
	copy(buf, pix[:need])
	return &Image{width: width, height: height, pix: buf}, nil
}

// FromImage converts a decoded Go image into a board Image. Alpha is dropped.
func FromImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, &InvalidImageError{Reason: "nil image"}
	}
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("zero area (%dx%d)", w, h)}
	}

	pix := make([]uint8, w*h*Channels)
	switch img := src.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				copy(pix[(y*w+x)*Channels:], row[x*4:x*4+3])
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				copy(pix[(y*w+x)*Channels:], row[x*4:x*4+3])
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				i := (y*w + x) * Channels
				pix[i+0] = uint8(r >> 8)
				pix[i+1] = uint8(g >> 8)
				pix[i+2] = uint8(b >> 8)
			}
		}
	}

	return &Image{width: w, height: h, pix: pix}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// RGB returns the color at (x, y). Out-of-range coordinates return black.
func (m *Image) RGB(x, y int) [3]uint8 {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return [3]uint8{}
	}
	i := (y*m.width + x) * Channels
	return [3]uint8{m.pix[i], m.pix[i+1], m.pix[i+2]}
}

// Pix returns a copy of the interleaved RGB pixel data.
func (m *Image) Pix() []uint8 {
	out := make([]uint8, len(m.pix))
	copy(out, m.pix)
	return out
}
