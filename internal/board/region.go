package board

import (
	"pcb-netlist/pkg/geometry"
)

// Region is a component bounding box reported by the detector.
type Region struct {
	ID         string           `json:"id"`
	Box        geometry.RectInt `json:"bbox"`
	ClassLabel string           `json:"class_label"`
}

// ValidateRegions checks that every region has a non-empty unique id and a
// positive-size box lying completely inside a width x height image. Boxes
// are never clamped: a box that spills over the edge is a detector bug the
// caller has to see.
func ValidateRegions(regions []Region, width, height int) error {
	frame := geometry.NewRectInt(0, 0, width, height)
	seen := make(map[string]bool, len(regions))

	for _, r := range regions {
		switch {
		case r.ID == "":
			return &InvalidRegionError{ID: r.ID, Box: r.Box, Reason: "empty id"}
		case seen[r.ID]:
			return &InvalidRegionError{ID: r.ID, Box: r.Box, Reason: "duplicate id"}
		case r.Box.Width <= 0 || r.Box.Height <= 0:
			return &InvalidRegionError{ID: r.ID, Box: r.Box, Reason: "non-positive width or height"}
		case !r.Box.Within(frame):
			return &InvalidRegionError{ID: r.ID, Box: r.Box, Reason: "outside image bounds " + frame.String()}
		}
		seen[r.ID] = true
	}
	return nil
}

// IDs returns the region ids in input order.
func IDs(regions []Region) []string {
	ids := make([]string, len(regions))
	for i, r := range regions {
		ids[i] = r.ID
	}
	return ids
}
