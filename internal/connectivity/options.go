package connectivity

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrInvalidOptions is wrapped by every option validation failure.
	ErrInvalidOptions = errors.New("invalid connectivity options")

	// ErrEmptyInput is returned when no regions are supplied and the caller
	// requires at least one node.
	ErrEmptyInput = errors.New("no component regions")
)

// Adjacency is the pixel neighbourhood rule used when following conductor.
type Adjacency int

const (
	// Eight treats diagonal neighbours as touching.
	Eight Adjacency = 8
	// Four only follows horizontal and vertical neighbours.
	Four Adjacency = 4
)

// ParseAdjacency maps 4 or 8 to an Adjacency.
func ParseAdjacency(n int) (Adjacency, error) {
	switch n {
	case 4:
		return Four, nil
	case 8:
		return Eight, nil
	default:
		return 0, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidOptions, n)
	}
}

// DefaultMaxEvidence caps how many touch-point pairs are counted per edge.
// Beyond a handful of confirmations extra pairs add cost, not information.
const DefaultMaxEvidence = 16

// Options configures the resolver.
type Options struct {
	// PerimeterStep is the spacing in pixels between sampled perimeter points.
	PerimeterStep int

	// TouchRadius is the half-size of the square neighbourhood checked around
	// each perimeter sample.
	TouchRadius int

	// Connectivity selects 4- or 8-adjacency for the continuity search.
	Connectivity Adjacency

	// MaxEvidence caps the evidence strength of a single edge.
	MaxEvidence int

	// RectPadding grows the search window on every side. The window is the
	// union of both boxes grown by TouchRadius, so zero still sees every
	// pixel a touch test looked at; traces that loop further out are not
	// followed.
	RectPadding int

	// RequireNodes makes an empty region set an error instead of an empty graph.
	RequireNodes bool

	// Workers bounds the number of goroutines scanning pairs. Zero means GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the resolver defaults.
func DefaultOptions() Options {
	return Options{
		PerimeterStep: 4,
		TouchRadius:   2,
		Connectivity:  Eight,
		MaxEvidence:   DefaultMaxEvidence,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.PerimeterStep <= 0 {
		return fmt.Errorf("%w: perimeter step must be positive, got %d", ErrInvalidOptions, o.PerimeterStep)
	}
	if o.TouchRadius < 0 {
		return fmt.Errorf("%w: touch radius must not be negative, got %d", ErrInvalidOptions, o.TouchRadius)
	}
	if o.Connectivity != Four && o.Connectivity != Eight {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidOptions, int(o.Connectivity))
	}
	if o.MaxEvidence <= 0 {
		return fmt.Errorf("%w: evidence cap must be positive, got %d", ErrInvalidOptions, o.MaxEvidence)
	}
	if o.RectPadding < 0 {
		return fmt.Errorf("%w: rectangle padding must not be negative, got %d", ErrInvalidOptions, o.RectPadding)
	}
	if o.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidOptions, o.Workers)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}
