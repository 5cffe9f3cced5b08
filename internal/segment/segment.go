// Package segment isolates conductive traces from the board substrate.
package segment

import (
	"fmt"
	"image"
	"runtime"

	"gocv.io/x/gocv"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/mask"
)

// Segment classifies every pixel of img as conductor or background.
//
// The image is converted to HSV, thresholded against the configured bounds,
// then cleaned with a morphological opening (drops speckle smaller than the
// kernel) followed by a closing (bridges glare gaps inside a trace). Opening
// runs first so the closing cannot regrow the speckle. Every stage writes a
// fresh buffer; img is never modified.
func Segment(img *board.Image, opts Options) (*mask.Mask, error) {
	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return nil, &board.InvalidImageError{Reason: "zero area"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bounds, err := opts.ColorModel.Bounds()
	if err != nil {
		return nil, err
	}

	pix := img.Pix()
	src, err := gocv.NewMatFromBytes(img.Height(), img.Width(), gocv.MatTypeCV8UC3, pix)
	if err != nil {
		return nil, fmt.Errorf("wrap image: %w", err)
	}
	defer src.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(src, &hsv, gocv.ColorRGBToHSV)
	runtime.KeepAlive(pix)

	raw := gocv.NewMat()
	defer raw.Close()
	gocv.InRangeWithScalar(hsv,
		gocv.NewScalar(bounds.Lower.H, bounds.Lower.S, bounds.Lower.V, 0),
		gocv.NewScalar(bounds.Upper.H, bounds.Upper.S, bounds.Upper.V, 0),
		&raw)

	if opts.Invert {
		inverted := gocv.NewMat()
		defer inverted.Close()
		gocv.BitwiseNot(raw, &inverted)
		raw, inverted = inverted, raw
	}

	kernel := gocv.GetStructuringElement(morphShape(opts.KernelShape), image.Pt(opts.KernelSize, opts.KernelSize))
	defer kernel.Close()

	opened := open(raw, kernel, opts.Iterations)
	defer opened.Close()

	closed := closeGaps(opened, kernel, opts.Iterations)
	defer closed.Close()

	return matToMask(closed)
}

// open erodes then dilates n times each.
func open(src, kernel gocv.Mat, n int) gocv.Mat {
	eroded := repeat(src, n, func(in gocv.Mat, out *gocv.Mat) { gocv.Erode(in, out, kernel) })
	defer eroded.Close()
	return repeat(eroded, n, func(in gocv.Mat, out *gocv.Mat) { gocv.Dilate(in, out, kernel) })
}

// closeGaps dilates then erodes n times each.
func closeGaps(src, kernel gocv.Mat, n int) gocv.Mat {
	dilated := repeat(src, n, func(in gocv.Mat, out *gocv.Mat) { gocv.Dilate(in, out, kernel) })
	defer dilated.Close()
	return repeat(dilated, n, func(in gocv.Mat, out *gocv.Mat) { gocv.Erode(in, out, kernel) })
}

// repeat applies op n times, each pass into a new Mat. The returned Mat is
// owned by the caller; src is left untouched.
func repeat(src gocv.Mat, n int, op func(in gocv.Mat, out *gocv.Mat)) gocv.Mat {
	cur := src.Clone()
	for i := 0; i < n; i++ {
		next := gocv.NewMat()
		op(cur, &next)
		cur.Close()
		cur = next
	}
	return cur
}

func morphShape(k KernelShape) gocv.MorphShape {
	switch k {
	case KernelEllipse:
		return gocv.MorphEllipse
	case KernelCross:
		return gocv.MorphCross
	default:
		return gocv.MorphRect
	}
}

func matToMask(m gocv.Mat) (*mask.Mask, error) {
	if m.Empty() {
		return nil, fmt.Errorf("segmentation produced an empty mat")
	}
	out, err := mask.FromBytes(m.Cols(), m.Rows(), m.ToBytes())
	if err != nil {
		return nil, fmt.Errorf("convert mask: %w", err)
	}
	return out, nil
}
