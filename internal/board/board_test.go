package board

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-netlist/pkg/geometry"
)

func TestNewImage_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		w, h, ch int
		pix      []uint8
	}{
		{"zero width", 0, 5, 3, nil},
		{"zero height", 5, 0, 3, nil},
		{"single channel", 2, 2, 1, make([]uint8, 4)},
		{"four channels", 2, 2, 4, make([]uint8, 16)},
		{"short buffer", 2, 2, 3, make([]uint8, 11)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewImage(tt.w, tt.h, tt.ch, tt.pix)
			assert.Nil(t, img)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidImage))

			var imgErr *InvalidImageError
			assert.True(t, errors.As(err, &imgErr))
		})
	}
}

func TestNewImage_CopiesBuffer(t *testing.T) {
	pix := []uint8{1, 2, 3, 4, 5, 6}
	img, err := NewImage(2, 1, 3, pix)
	require.NoError(t, err)

	pix[0] = 99
	assert.Equal(t, [3]uint8{1, 2, 3}, img.RGB(0, 0))
	assert.Equal(t, [3]uint8{4, 5, 6}, img.RGB(1, 0))
	assert.Equal(t, [3]uint8{}, img.RGB(5, 5))

	out := img.Pix()
	out[1] = 42
	assert.Equal(t, [3]uint8{1, 2, 3}, img.RGB(0, 0), "Pix must return a copy")
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 13, 12))
	src.Set(10, 10, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	src.Set(12, 11, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	img, err := FromImage(src)
	require.NoError(t, err)
	assert.Equal(t, 3, img.Width())
	assert.Equal(t, 2, img.Height())
	assert.Equal(t, [3]uint8{200, 100, 50}, img.RGB(0, 0))
	assert.Equal(t, [3]uint8{1, 2, 3}, img.RGB(2, 1))

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 77})
	img, err = FromImage(gray)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{77, 77, 77}, img.RGB(1, 1))

	_, err = FromImage(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDecodeImage_PNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	src.Set(3, 3, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := DecodeImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0, 255, 0}, img.RGB(3, 3))
	want := bytes.Repeat([]byte{10, 20, 30}, 16)
	copy(want[len(want)-3:], []byte{0, 255, 0})
	assert.Equal(t, want, img.Pix())

	_, err = DecodeImage(bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestLoadImage_MissingFile(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadImage_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"regions":[]}`), 0o644))

	_, err := LoadImage(path)
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("board.TIFF"))
	assert.True(t, IsSupportedFormat("scan.webp"))
	assert.False(t, IsSupportedFormat("regions.json"))
}

func TestValidateRegions(t *testing.T) {
	ok := Region{ID: "R1", Box: geometry.NewRectInt(0, 0, 10, 10)}

	tests := []struct {
		name    string
		regions []Region
		wantErr bool
	}{
		{"empty set", nil, false},
		{"valid", []Region{ok, {ID: "U1", Box: geometry.NewRectInt(90, 40, 10, 10)}}, false},
		{"past right edge", []Region{{ID: "U1", Box: geometry.NewRectInt(95, 0, 10, 10)}}, true},
		{"past bottom edge", []Region{{ID: "U1", Box: geometry.NewRectInt(0, 45, 10, 10)}}, true},
		{"negative origin", []Region{{ID: "U1", Box: geometry.NewRectInt(-1, 0, 10, 10)}}, true},
		{"zero width", []Region{{ID: "U1", Box: geometry.NewRectInt(0, 0, 0, 10)}}, true},
		{"negative height", []Region{{ID: "U1", Box: geometry.NewRectInt(0, 20, 5, -3)}}, true},
		{"duplicate id", []Region{ok, ok}, true},
		{"empty id", []Region{{Box: geometry.NewRectInt(0, 0, 5, 5)}}, true},
		{"huge width", []Region{{ID: "U1", Box: geometry.NewRectInt(5, 5, math.MaxInt, 10)}}, true},
		{"huge origin", []Region{{ID: "U1", Box: geometry.NewRectInt(math.MaxInt-5, 5, 10, 10)}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRegions(tt.regions, 100, 50)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var regErr *InvalidRegionError
			require.True(t, errors.As(err, &regErr))
			assert.ErrorIs(t, err, ErrInvalidRegion)
		})
	}
}

func TestParseRegions_TopLeft(t *testing.T) {
	doc := `{"anchor":"top-left","regions":[
		{"id":"R1","class_label":"resistor","bbox":{"x":10,"y":20,"w":30,"h":8}},
		{"id":"U1","class_label":"ic","bbox":{"x":50,"y":5,"w":40,"h":40}}
	]}`

	regions, err := ParseRegions([]byte(doc), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, Region{ID: "R1", ClassLabel: "resistor", Box: geometry.NewRectInt(10, 20, 30, 8)}, regions[0])
	assert.Equal(t, []string{"R1", "U1"}, IDs(regions))
}

func TestParseRegions_CenterAnchor(t *testing.T) {
	doc := `{"anchor":"center","regions":[{"id":"C1","bbox":{"x":50,"y":20,"w":20,"h":10}}]}`

	regions, err := ParseRegions([]byte(doc), ParseOptions{})
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, geometry.NewRectInt(40, 15, 20, 10), regions[0].Box)
}

func TestParseRegions_BareArrayAndConfidence(t *testing.T) {
	doc := `[
		{"id":"Q1","bbox":{"x":0,"y":0,"w":5,"h":5},"confidence":0.9},
		{"id":"Q2","bbox":{"x":0,"y":0,"w":5,"h":5},"confidence":0.1},
		{"id":"Q3","bbox":{"x":0,"y":0,"w":5,"h":5}}
	]`

	regions, err := ParseRegions([]byte(doc), ParseOptions{MinConfidence: 0.25})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q1", "Q3"}, IDs(regions))
}

func TestParseRegions_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"missing bbox", `{"regions":[{"id":"R1"}]}`},
		{"empty id", `[{"id":"","bbox":{"x":0,"y":0,"w":1,"h":1}}]`},
		{"fractional coordinate", `[{"id":"R1","bbox":{"x":0.5,"y":0,"w":1,"h":1}}]`},
		{"unknown anchor", `{"anchor":"middle","regions":[]}`},
		{"scalar", `42`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegions([]byte(tt.doc), ParseOptions{})
			assert.Error(t, err)
		})
	}
}

func TestMarshalRegions_RoundTrip(t *testing.T) {
	in := []Region{{ID: "D1", ClassLabel: "diode", Box: geometry.NewRectInt(1, 2, 3, 4)}}
	data, err := MarshalRegions(in)
	require.NoError(t, err)

	out, err := ParseRegions(data, ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
