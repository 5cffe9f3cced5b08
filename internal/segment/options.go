package segment

import (
	"errors"
	"fmt"
	"strings"

	"pcb-netlist/pkg/colorutil"
)

// ErrInvalidOptions is wrapped by every option validation failure.
var ErrInvalidOptions = errors.New("invalid segmentation options")

// Preset names a built-in color model.
type Preset int

const (
	// PresetGreenMask targets the lighter green of copper under a green solder mask.
	PresetGreenMask Preset = iota
	// PresetBareCopper targets exposed copper/gold.
	PresetBareCopper
	// PresetCustom uses the explicit bounds carried by the ColorModel.
	PresetCustom
)

func (p Preset) String() string {
	switch p {
	case PresetGreenMask:
		return "green-mask"
	case PresetBareCopper:
		return "bare-copper"
	case PresetCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParsePreset maps a configuration name to a Preset.
func ParsePreset(name string) (Preset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "green-mask", "solder-mask-green", "green":
		return PresetGreenMask, nil
	case "bare-copper", "copper":
		return PresetBareCopper, nil
	case "custom":
		return PresetCustom, nil
	default:
		return 0, fmt.Errorf("%w: unknown color model %q", ErrInvalidOptions, name)
	}
}

// HSVBounds is an inclusive box in OpenCV HSV space.
type HSVBounds struct {
	Lower colorutil.HSV `json:"lower" yaml:"lower"`
	Upper colorutil.HSV `json:"upper" yaml:"upper"`
}

// Contains reports whether c falls inside the box on all three channels.
func (b HSVBounds) Contains(c colorutil.HSV) bool {
	return c.Within(b.Lower, b.Upper)
}

func (b HSVBounds) validate() error {
	l, u := b.Lower, b.Upper
	if l != l.Clamp() || u != u.Clamp() {
		return fmt.Errorf("%w: HSV bounds outside H 0-180, S/V 0-255", ErrInvalidOptions)
	}
	if l.H > u.H || l.S > u.S || l.V > u.V {
		return fmt.Errorf("%w: lower HSV bound exceeds upper", ErrInvalidOptions)
	}
	return nil
}

var presetBounds = map[Preset]HSVBounds{
	PresetGreenMask: {
		Lower: colorutil.HSV{H: 35, S: 40, V: 120},
		Upper: colorutil.HSV{H: 85, S: 255, V: 255},
	},
	PresetBareCopper: {
		Lower: colorutil.HSV{H: 10, S: 50, V: 50},
		Upper: colorutil.HSV{H: 30, S: 255, V: 255},
	},
}

// ColorModel selects a preset or carries explicit bounds for PresetCustom.
type ColorModel struct {
	Preset Preset
	Custom *HSVBounds
}

// Bounds resolves the model to concrete HSV bounds.
func (c ColorModel) Bounds() (HSVBounds, error) {
	if c.Preset == PresetCustom {
		if c.Custom == nil {
			return HSVBounds{}, fmt.Errorf("%w: custom color model without bounds", ErrInvalidOptions)
		}
		if err := c.Custom.validate(); err != nil {
			return HSVBounds{}, err
		}
		return *c.Custom, nil
	}
	b, ok := presetBounds[c.Preset]
	if !ok {
		return HSVBounds{}, fmt.Errorf("%w: unknown preset %d", ErrInvalidOptions, int(c.Preset))
	}
	return b, nil
}

// KernelShape is the structuring element used for opening and closing.
type KernelShape int

const (
	KernelRect KernelShape = iota
	KernelEllipse
	KernelCross
)

func (k KernelShape) String() string {
	switch k {
	case KernelRect:
		return "rect"
	case KernelEllipse:
		return "ellipse"
	case KernelCross:
		return "cross"
	default:
		return "unknown"
	}
}

// ParseKernelShape maps a configuration name to a KernelShape.
func ParseKernelShape(name string) (KernelShape, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "rect":
		return KernelRect, nil
	case "ellipse":
		return KernelEllipse, nil
	case "cross":
		return KernelCross, nil
	default:
		return 0, fmt.Errorf("%w: unknown kernel shape %q", ErrInvalidOptions, name)
	}
}

// Options configures segmentation.
type Options struct {
	ColorModel ColorModel

	// Invert treats the bounds as describing the substrate, so everything
	// outside them becomes conductor.
	Invert bool

	// KernelSize is the structuring element edge in pixels. Too small leaves
	// broken traces; too large fuses neighbouring traces.
	KernelSize  int
	KernelShape KernelShape

	// Iterations is how many erosions (dilations) each opening and closing performs.
	Iterations int
}

// DefaultOptions returns options for a green solder-mask board.
func DefaultOptions() Options {
	return Options{
		ColorModel:  ColorModel{Preset: PresetGreenMask},
		KernelSize:  3,
		KernelShape: KernelRect,
		Iterations:  1,
	}
}

// WithPreset returns a copy of the options using a built-in color model.
func (o Options) WithPreset(p Preset) Options {
	o.ColorModel = ColorModel{Preset: p}
	return o
}

// WithCustomBounds returns a copy of the options using explicit HSV bounds.
func (o Options) WithCustomBounds(lower, upper colorutil.HSV) Options {
	o.ColorModel = ColorModel{Preset: PresetCustom, Custom: &HSVBounds{Lower: lower, Upper: upper}}
	return o
}

// WithKernel returns a copy of the options with a different structuring element size.
func (o Options) WithKernel(size int) Options {
	o.KernelSize = size
	return o
}

// Validate checks the options without touching an image.
func (o Options) Validate() error {
	if _, err := o.ColorModel.Bounds(); err != nil {
		return err
	}
	if o.KernelSize <= 0 {
		return fmt.Errorf("%w: kernel size must be positive, got %d", ErrInvalidOptions, o.KernelSize)
	}
	if o.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidOptions, o.Iterations)
	}
	if o.KernelShape < KernelRect || o.KernelShape > KernelCross {
		return fmt.Errorf("%w: unknown kernel shape %d", ErrInvalidOptions, int(o.KernelShape))
	}
	return nil
}

// BoundsFromSample builds custom bounds around a color sampled from the
// board. Hue gets a quarter of the tolerance since its range is smaller.
func BoundsFromSample(rgb [3]uint8, tolerance int) HSVBounds {
	c := colorutil.ToHSV(rgb)
	hTol := float64(tolerance / 4)
	tol := float64(tolerance)

	return HSVBounds{
		Lower: colorutil.HSV{H: c.H - hTol, S: c.S - tol, V: c.V - tol}.Clamp(),
		Upper: colorutil.HSV{H: c.H + hTol, S: c.S + tol, V: c.V + tol}.Clamp(),
	}
}
