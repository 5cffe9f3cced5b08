package connectivity

import (
	"pcb-netlist/internal/mask"
	"pcb-netlist/pkg/geometry"
)

// TouchPoints samples the perimeter of box every step pixels and returns the
// samples that have a conductor pixel within radius (square neighbourhood).
// The perimeter is used rather than the centre because the body of an IC
// or a resistor is rarely conductor.
func TouchPoints(m *mask.Mask, box geometry.RectInt, step, radius int) []geometry.PointInt {
	var touches []geometry.PointInt
	for _, p := range box.PerimeterPoints(step) {
		if m.AnyIn(neighbourhood(p, radius)) {
			touches = append(touches, p)
		}
	}
	return touches
}

func neighbourhood(p geometry.PointInt, radius int) geometry.RectInt {
	return geometry.NewRectInt(p.X-radius, p.Y-radius, 2*radius+1, 2*radius+1)
}
