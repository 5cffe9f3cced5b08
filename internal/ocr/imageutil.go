package ocr

import (
	"image"

	"gocv.io/x/gocv"

	"pcb-netlist/pkg/geometry"
)

// cropMargin is added around each box; detector boxes are often tight
// enough to clip the edge of the marking.
const cropMargin = 4

// minTextHeight is the height small crops are upscaled to before reading.
const minTextHeight = 150

func cropBox(box geometry.RectInt, width, height int) geometry.RectInt {
	return box.Expand(cropMargin).Intersect(geometry.NewRectInt(0, 0, width, height))
}

// preprocess turns an RGB crop into dark text on a light background.
func preprocess(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	scaled := gocv.NewMat()
	if minDim := min(h, w); minDim < minTextHeight {
		scale := float64(minTextHeight) / float64(minDim)
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		region.CopyTo(&scaled)
	}

	gray := gocv.NewMat()
	gocv.CvtColor(scaled, &gray, gocv.ColorRGBToGray)
	scaled.Close()

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Light text on a dark package leaves the background black.
	if white := gocv.CountNonZero(binary); white*2 < binary.Rows()*binary.Cols() {
		inverted := gocv.NewMat()
		gocv.BitwiseNot(binary, &inverted)
		binary.Close()
		return inverted
	}
	return binary
}

func rotate(img gocv.Mat, degrees int) gocv.Mat {
	result := gocv.NewMat()
	switch degrees {
	case 90:
		gocv.Rotate(img, &result, gocv.Rotate90Clockwise)
	case 180:
		gocv.Rotate(img, &result, gocv.Rotate180Clockwise)
	case 270:
		gocv.Rotate(img, &result, gocv.Rotate90CounterClockwise)
	default:
		img.CopyTo(&result)
	}
	return result
}
