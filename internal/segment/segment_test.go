package segment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-netlist/internal/board"
	"pcb-netlist/pkg/colorutil"
	"pcb-netlist/pkg/geometry"
)

var (
	substrateGreen = [3]uint8{0, 80, 0}      // H60 S255 V80: below the green-mask V floor
	traceGreen     = [3]uint8{120, 220, 120} // H60 S116 V220
	copper         = [3]uint8{200, 120, 50}  // H14 S191 V200
	darkGray       = [3]uint8{30, 30, 30}
)

// paint builds a board image filled with bg and the given rectangles in fg.
func paint(t *testing.T, w, h int, bg, fg [3]uint8, rects ...geometry.RectInt) *board.Image {
	t.Helper()
	pix := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := bg
			for _, r := range rects {
				if r.Contains(x, y) {
					c = fg
					break
				}
			}
			copy(pix[(y*w+x)*3:], c[:])
		}
	}
	img, err := board.NewImage(w, h, 3, pix)
	require.NoError(t, err)
	return img
}

func TestSegment_RejectsEmptyImage(t *testing.T) {
	_, err := Segment(nil, DefaultOptions())
	assert.True(t, errors.Is(err, board.ErrInvalidImage))

	_, err = Segment(&board.Image{}, DefaultOptions())
	assert.True(t, errors.Is(err, board.ErrInvalidImage))
}

func TestSegment_RejectsInvalidOptions(t *testing.T) {
	img := paint(t, 8, 8, substrateGreen, traceGreen)
	_, err := Segment(img, DefaultOptions().WithKernel(0))
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestSegment_AllBackground(t *testing.T) {
	img := paint(t, 40, 30, substrateGreen, traceGreen)

	m, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 40, m.Width())
	assert.Equal(t, 30, m.Height())
	assert.Zero(t, m.Count())
}

func TestSegment_AllConductor(t *testing.T) {
	img := paint(t, 20, 20, traceGreen, traceGreen)

	m, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 400, m.Count())
}

func TestSegment_GreenMaskTrace(t *testing.T) {
	strip := geometry.NewRectInt(5, 10, 50, 6)
	img := paint(t, 60, 30, substrateGreen, traceGreen, strip)

	m, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, strip.Area(), m.Count())
	assert.True(t, m.At(30, 12))
	assert.False(t, m.At(30, 25))
}

func TestSegment_BareCopperPreset(t *testing.T) {
	pad := geometry.NewRectInt(10, 10, 10, 10)
	img := paint(t, 30, 30, darkGray, copper, pad)

	m, err := Segment(img, DefaultOptions().WithPreset(PresetBareCopper))
	require.NoError(t, err)
	assert.Equal(t, pad.Area(), m.Count())

	none, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, none.Count(), "copper is not green")
}

func TestSegment_CustomBoundsAndInvert(t *testing.T) {
	pad := geometry.NewRectInt(10, 10, 10, 10)
	img := paint(t, 30, 30, darkGray, copper, pad)

	substrate := BoundsFromSample(darkGray, 20)
	opts := DefaultOptions().WithCustomBounds(substrate.Lower, substrate.Upper)

	m, err := Segment(img, opts)
	require.NoError(t, err)
	assert.Equal(t, 900-pad.Area(), m.Count(), "bounds select the substrate")

	opts.Invert = true
	inv, err := Segment(img, opts)
	require.NoError(t, err)
	assert.Equal(t, pad.Area(), inv.Count(), "inverted bounds select everything else")
}

func TestSegment_OpeningRemovesSpeckle(t *testing.T) {
	img := paint(t, 30, 30, substrateGreen, traceGreen,
		geometry.NewRectInt(5, 5, 1, 1),
		geometry.NewRectInt(20, 20, 2, 1),
	)

	m, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, m.Count(), "noise smaller than the kernel is removed")
}

func TestSegment_ClosingBridgesSmallGap(t *testing.T) {
	left := geometry.NewRectInt(5, 10, 30, 6)
	right := geometry.NewRectInt(36, 10, 30, 6) // one-pixel gap at x=35
	img := paint(t, 70, 30, substrateGreen, traceGreen, left, right)

	m, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	for y := 10; y < 16; y++ {
		assert.True(t, m.At(35, y), "gap pixel (35,%d) should be bridged", y)
	}
	assert.False(t, m.At(35, 9), "closing must not grow the trace footprint")
	assert.False(t, m.At(35, 16))
}

func TestSegment_Idempotent(t *testing.T) {
	img := paint(t, 50, 40, substrateGreen, traceGreen,
		geometry.NewRectInt(3, 3, 40, 5),
		geometry.NewRectInt(20, 3, 5, 30),
		geometry.NewRectInt(45, 35, 1, 1),
	)
	before := img.Pix()

	a, err := Segment(img, DefaultOptions())
	require.NoError(t, err)
	b, err := Segment(img, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, a.Equal(b), "same image and options must give bit-identical masks")
	assert.Equal(t, before, img.Pix(), "input image must not be modified")
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(o *Options)
	}{
		{"zero kernel", func(o *Options) { o.KernelSize = 0 }},
		{"zero iterations", func(o *Options) { o.Iterations = 0 }},
		{"bad shape", func(o *Options) { o.KernelShape = KernelShape(9) }},
		{"custom without bounds", func(o *Options) { o.ColorModel = ColorModel{Preset: PresetCustom} }},
		{"inverted bounds", func(o *Options) {
			*o = o.WithCustomBounds(colorutil.HSV{H: 90}, colorutil.HSV{H: 10, S: 255, V: 255})
		}},
		{"hue out of range", func(o *Options) {
			*o = o.WithCustomBounds(colorutil.HSV{}, colorutil.HSV{H: 200, S: 255, V: 255})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mod(&o)
			assert.ErrorIs(t, o.Validate(), ErrInvalidOptions)
		})
	}

	assert.NoError(t, DefaultOptions().Validate())
}

func TestParsePreset(t *testing.T) {
	for name, want := range map[string]Preset{
		"green-mask":        PresetGreenMask,
		"solder-mask-green": PresetGreenMask,
		"Bare-Copper":       PresetBareCopper,
		"custom":            PresetCustom,
	} {
		got, err := ParsePreset(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParsePreset("purple")
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestBoundsFromSample(t *testing.T) {
	b := BoundsFromSample(traceGreen, 40)
	assert.True(t, b.Contains(colorutil.ToHSV(traceGreen)))
	assert.False(t, b.Contains(colorutil.ToHSV(copper)))
	assert.InDelta(t, 50, b.Lower.H, 0.01)
	assert.InDelta(t, 70, b.Upper.H, 0.01)
}
