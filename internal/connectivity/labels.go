package connectivity

import (
	"pcb-netlist/internal/mask"
	"pcb-netlist/pkg/geometry"
)

var (
	dirs4 = []geometry.PointInt{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}
	dirs8 = []geometry.PointInt{
		{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
		{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
	}
)

// labeller assigns connected-component labels to the conductor pixels of a
// window of the mask. Its buffers are reused between windows, so a labeller
// belongs to one goroutine.
type labeller struct {
	window geometry.RectInt
	labels []int32 // 0 = background, >0 = component label
	queue  []int32
}

// label floods every conductor region inside window (already clipped to the
// mask). Pixels outside the window are never visited, so two traces that
// only meet outside it keep different labels.
func (l *labeller) label(m *mask.Mask, window geometry.RectInt, adj Adjacency) {
	l.window = window
	n := window.Area()
	if cap(l.labels) < n {
		l.labels = make([]int32, n)
	} else {
		l.labels = l.labels[:n]
		clear(l.labels)
	}

	dirs := dirs8
	if adj == Four {
		dirs = dirs4
	}

	w, h := window.Width, window.Height
	next := int32(0)
	for sy := 0; sy < h; sy++ {
		for sx := 0; sx < w; sx++ {
			start := int32(sy*w + sx)
			if l.labels[start] != 0 || !m.At(window.X+sx, window.Y+sy) {
				continue
			}

			next++
			l.labels[start] = next
			l.queue = append(l.queue[:0], start)

			for head := 0; head < len(l.queue); head++ {
				cur := l.queue[head]
				cx, cy := int(cur)%w, int(cur)/w

				for _, d := range dirs {
					nx, ny := cx+d.X, cy+d.Y
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					idx := int32(ny*w + nx)
					if l.labels[idx] != 0 || !m.At(window.X+nx, window.Y+ny) {
						continue
					}
					l.labels[idx] = next
					l.queue = append(l.queue, idx)
				}
			}
		}
	}
}

// near returns the distinct labels found in the neighbourhood of p that
// overlaps the labelled window. dst is reused for the result.
func (l *labeller) near(p geometry.PointInt, radius int, dst []int32) []int32 {
	dst = dst[:0]
	r := neighbourhood(p, radius).Intersect(l.window)
	for y := r.Y; y < r.Bottom(); y++ {
		row := (y - l.window.Y) * l.window.Width
		for x := r.X; x < r.Right(); x++ {
			lbl := l.labels[row+x-l.window.X]
			if lbl != 0 && !containsLabel(dst, lbl) {
				dst = append(dst, lbl)
			}
		}
	}
	return dst
}

func containsLabel(set []int32, v int32) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func sharesLabel(a, b []int32) bool {
	for _, x := range a {
		if containsLabel(b, x) {
			return true
		}
	}
	return false
}
