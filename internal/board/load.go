package board

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// LoadImage reads and decodes a board image from disk. Paths without a
// supported image extension are rejected before the file is opened.
func LoadImage(path string) (*Image, error) {
	if !IsSupportedFormat(path) {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("unsupported format %q", filepath.Ext(path))}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	return DecodeImage(file)
}

// DecodeImage decodes any registered raster format into a board Image.
// Decoder failures are reported as InvalidImageError.
func DecodeImage(r io.Reader) (*Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, &InvalidImageError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	out, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s image: %w", format, err)
	}
	return out, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
