// Package ocr reads component markings with Tesseract.
package ocr

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/designator"
	"pcb-netlist/pkg/geometry"
)

// ElectronicsChars is the character set for component markings.
// Excludes lowercase to reduce confusion (0/O, 1/I, etc.)
const ElectronicsChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ-/"

// Engine wraps a Tesseract client. A client handles one image at a time, so
// calls are serialised.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates an engine for the given Tesseract language ("eng" when empty).
func NewEngine(language string) (*Engine, error) {
	if language == "" {
		language = "eng"
	}
	client := gosseract.NewClient()

	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Part numbers aren't dictionary words; keep Tesseract from "correcting" them.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")
	_ = client.SetVariable("language_model_penalty_non_dict_word", "0")
	_ = client.SetVariable("language_model_penalty_non_freq_dict_word", "0")

	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := client.SetWhitelist(ElectronicsChars); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set whitelist: %w", err)
	}

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Reader binds the engine to one board image.
func (e *Engine) Reader(img *board.Image) designator.Reader {
	return &imageReader{engine: e, img: img}
}

type imageReader struct {
	engine *Engine
	img    *board.Image
}

// ReadText crops box (plus a margin) from the image and reads it upright and
// turned a quarter, since vertical parts carry vertical markings. A reading
// that holds a reference designator wins; otherwise the longest one does.
func (r *imageReader) ReadText(ctx context.Context, box geometry.RectInt) (string, error) {
	crop := cropBox(box, r.img.Width(), r.img.Height())
	if crop.Empty() {
		return "", fmt.Errorf("invalid region bounds %s", box)
	}

	pix := r.img.Pix()
	src, err := gocv.NewMatFromBytes(r.img.Height(), r.img.Width(), gocv.MatTypeCV8UC3, pix)
	if err != nil {
		return "", fmt.Errorf("wrap image: %w", err)
	}
	defer src.Close()

	region := src.Region(image.Rect(crop.X, crop.Y, crop.Right(), crop.Bottom()))
	defer region.Close()

	prepared := preprocess(region)
	runtime.KeepAlive(pix)
	defer prepared.Close()

	var best string
	for _, deg := range []int{0, 90} {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rotated := rotate(prepared, deg)
		text, err := r.engine.recognize(rotated)
		rotated.Close()
		if err != nil {
			return "", err
		}
		best = pickReading(best, text)
		if designator.IsReference(designator.Normalize(best)) {
			break
		}
	}
	return best, nil
}

// recognize runs Tesseract on a prepared single-channel image.
func (e *Engine) recognize(img gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.ToUpper(strings.Join(strings.Fields(text), " ")), nil
}

// pickReading keeps a reading with a reference designator, else the longer one.
func pickReading(current, candidate string) string {
	if designator.IsReference(designator.Normalize(current)) {
		return current
	}
	if designator.IsReference(designator.Normalize(candidate)) {
		return candidate
	}
	if len(designator.Normalize(candidate)) > len(designator.Normalize(current)) {
		return candidate
	}
	return current
}
