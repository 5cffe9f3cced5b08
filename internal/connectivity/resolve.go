// Package connectivity decides which components are electrically joined by
// conductor, given a conductor mask and the component bounding boxes.
package connectivity

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/mask"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/pkg/geometry"
)

// pair is one unordered candidate (i < j) and its evidence once scanned.
type pair struct {
	i, j     int
	evidence int
}

// Resolve builds the connectivity graph for regions over m.
//
// Every region becomes a node. For each unordered pair whose boxes both touch
// conductor on their perimeter, the conductor inside the union of the two
// boxes (grown by TouchRadius plus RectPadding) is labelled, and every (touch on A, touch on
// B) pair landing on a shared label counts as one piece of evidence, up to
// MaxEvidence. Any evidence at all yields an edge. Net merging across edges
// is left to Graph.Nets.
//
// Pairs are scanned concurrently; results are merged in pair order so the
// graph does not depend on scheduling. Cancelling ctx aborts the scan.
func Resolve(ctx context.Context, m *mask.Mask, regions []board.Region, opts Options) (*netlist.Graph, error) {
	if m == nil {
		return nil, &board.InvalidImageError{Reason: "nil mask"}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		if opts.RequireNodes {
			return nil, ErrEmptyInput
		}
		return netlist.NewGraph(), nil
	}
	if err := board.ValidateRegions(regions, m.Width(), m.Height()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	touches := make([][]geometry.PointInt, len(regions))
	for i, r := range regions {
		touches[i] = TouchPoints(m, r.Box, opts.PerimeterStep, opts.TouchRadius)
	}

	var pairs []pair
	for i := range regions {
		if len(touches[i]) == 0 {
			continue
		}
		for j := i + 1; j < len(regions); j++ {
			if len(touches[j]) > 0 {
				pairs = append(pairs, pair{i: i, j: j})
			}
		}
	}

	workers := min(opts.workers(), max(len(pairs), 1))
	eg, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		eg.Go(func() error {
			var lab labeller
			for p := w; p < len(pairs); p += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				a, b := regions[pairs[p].i], regions[pairs[p].j]
				pairs[p].evidence = evidence(&lab, m, a.Box, b.Box,
					touches[pairs[p].i], touches[pairs[p].j], opts)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g := netlist.NewGraph()
	for _, r := range regions {
		g.AddNode(r.ID)
	}
	for _, p := range pairs {
		if p.evidence == 0 {
			continue
		}
		if err := g.AddEdge(regions[p.i].ID, regions[p.j].ID, p.evidence); err != nil {
			return nil, fmt.Errorf("add edge: %w", err)
		}
	}
	return g, nil
}

// evidence counts mutually reachable touch-point pairs between two boxes,
// stopping at opts.MaxEvidence.
func evidence(lab *labeller, m *mask.Mask, boxA, boxB geometry.RectInt,
	touchA, touchB []geometry.PointInt, opts Options) int {

	// The touch neighbourhoods reach TouchRadius past the boxes, so the
	// window must too.
	window := boxA.Union(boxB).Expand(opts.RectPadding + opts.TouchRadius).Intersect(m.Bounds())
	lab.label(m, window, opts.Connectivity)

	labelsA := make([][]int32, len(touchA))
	for i, p := range touchA {
		labelsA[i] = lab.near(p, opts.TouchRadius, nil)
	}

	var scratch []int32
	count := 0
	for _, p := range touchB {
		scratch = lab.near(p, opts.TouchRadius, scratch)
		if len(scratch) == 0 {
			continue
		}
		for _, la := range labelsA {
			if sharesLabel(la, scratch) {
				count++
				if count >= opts.MaxEvidence {
					return count
				}
			}
		}
	}
	return count
}
