package board

import (
	"errors"
	"fmt"

	"pcb-netlist/pkg/geometry"
)

// Sentinel errors for contract violations by the caller.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidImage indicates a malformed or empty board image.
	ErrInvalidImage = errors.New("invalid image")

	// ErrInvalidRegion indicates a component region with unusable geometry
	// (outside the image, non-positive size) or a duplicate id.
	ErrInvalidRegion = errors.New("invalid region")
)

// InvalidImageError describes why an image was rejected.
type InvalidImageError struct {
	Reason string
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidImage, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidImage) match.
func (e *InvalidImageError) Is(target error) bool {
	return target == ErrInvalidImage
}

// InvalidRegionError describes a rejected component region.
type InvalidRegionError struct {
	ID     string
	Box    geometry.RectInt
	Reason string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("%v %q %s: %s", ErrInvalidRegion, e.ID, e.Box, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRegion) match.
func (e *InvalidRegionError) Is(target error) bool {
	return target == ErrInvalidRegion
}
