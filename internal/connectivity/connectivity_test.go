package connectivity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/mask"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/pkg/geometry"
)

func rect(x, y, w, h int) geometry.RectInt { return geometry.NewRectInt(x, y, w, h) }

func buildMask(w, h int, conductor ...geometry.RectInt) *mask.Mask {
	b := mask.NewBuilder(w, h)
	for _, r := range conductor {
		b.FillRect(r, true)
	}
	return b.Build()
}

func region(id string, r geometry.RectInt) board.Region {
	return board.Region{ID: id, Box: r}
}

func resolve(t *testing.T, m *mask.Mask, regions []board.Region, opts Options) *netlist.Graph {
	t.Helper()
	g, err := Resolve(context.Background(), m, regions, opts)
	require.NoError(t, err)
	return g
}

func TestResolve_AllBackground(t *testing.T) {
	m := buildMask(100, 40)
	regions := []board.Region{
		region("U1", rect(5, 5, 20, 20)),
		region("R1", rect(40, 5, 10, 10)),
		region("C1", rect(70, 10, 8, 8)),
	}

	g := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, 3, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
}

func TestResolve_StripJoinsTwo(t *testing.T) {
	m := buildMask(120, 40, rect(0, 16, 120, 8))
	regions := []board.Region{
		region("A", rect(10, 12, 16, 16)),
		region("B", rect(50, 12, 16, 16)),
		region("C", rect(95, 30, 8, 8)),
	}

	g := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, []string{"A -- B"}, g.Netlist())
	assert.True(t, g.HasNode("C"))
	assert.Zero(t, g.Degree("C"))
}

func TestResolve_TraceJustOutsideBoxes(t *testing.T) {
	// The trace runs along the top edge of both boxes without entering them.
	m := buildMask(80, 30, rect(0, 10, 80, 2))
	regions := []board.Region{
		region("A", rect(10, 12, 10, 10)),
		region("B", rect(50, 12, 10, 10)),
	}

	opts := DefaultOptions()
	require.NotEmpty(t, TouchPoints(m, regions[0].Box, opts.PerimeterStep, opts.TouchRadius))
	require.NotEmpty(t, TouchPoints(m, regions[1].Box, opts.PerimeterStep, opts.TouchRadius))

	g := resolve(t, m, regions, opts)
	assert.Equal(t, []string{"A -- B"}, g.Netlist())
	assert.Positive(t, g.Evidence("A", "B"))
}

func TestResolve_BlobJoinsEveryPair(t *testing.T) {
	m := buildMask(120, 40, rect(5, 5, 110, 30))
	regions := []board.Region{
		region("A", rect(10, 10, 10, 10)),
		region("B", rect(50, 10, 10, 10)),
		region("C", rect(90, 10, 10, 10)),
	}

	g := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, []string{"A -- B", "A -- C", "B -- C"}, g.Netlist())
	require.Len(t, g.Nets(), 1)
}

func TestResolve_DisjointBlobs(t *testing.T) {
	m := buildMask(120, 40, rect(0, 5, 120, 6), rect(0, 28, 120, 6))
	regions := []board.Region{
		region("A", rect(10, 2, 12, 12)),
		region("B", rect(90, 2, 12, 12)),
		region("C", rect(10, 25, 12, 12)),
		region("D", rect(90, 25, 12, 12)),
	}

	g := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, []string{"A -- B", "C -- D"}, g.Netlist())
	assert.Len(t, g.Nets(), 2)
}

func TestResolve_OrderIndependent(t *testing.T) {
	m := buildMask(120, 40, rect(0, 5, 120, 6), rect(0, 28, 120, 6))
	regions := []board.Region{
		region("A", rect(10, 2, 12, 12)),
		region("B", rect(90, 2, 12, 12)),
		region("C", rect(10, 25, 12, 12)),
		region("D", rect(90, 25, 12, 12)),
	}
	reversed := make([]board.Region, len(regions))
	for i, r := range regions {
		reversed[len(regions)-1-i] = r
	}

	forward := resolve(t, m, regions, DefaultOptions())
	backward := resolve(t, m, reversed, DefaultOptions())
	assert.Equal(t, forward.Edges(), backward.Edges())

	again := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, forward.Edges(), again.Edges())
}

func TestResolve_WorkerCountDoesNotMatter(t *testing.T) {
	m := buildMask(120, 40, rect(5, 5, 110, 30))
	var regions []board.Region
	for i, id := range []string{"A", "B", "C", "D", "E", "F"} {
		regions = append(regions, region(id, rect(6+i*18, 8, 10, 10)))
	}

	single := DefaultOptions()
	single.Workers = 1
	many := DefaultOptions()
	many.Workers = 8

	assert.Equal(t, resolve(t, m, regions, single).Edges(), resolve(t, m, regions, many).Edges())
}

func TestResolve_Adjacency(t *testing.T) {
	// Two blocks that meet only at a diagonal corner.
	m := buildMask(20, 20, rect(0, 0, 10, 10), rect(10, 10, 10, 10))
	regions := []board.Region{
		region("A", rect(0, 0, 6, 6)),
		region("B", rect(14, 14, 6, 6)),
	}

	opts := DefaultOptions()
	assert.Equal(t, []string{"A -- B"}, resolve(t, m, regions, opts).Netlist())

	opts.Connectivity = Four
	assert.Empty(t, resolve(t, m, regions, opts).Netlist())
}

func TestResolve_EvidenceCap(t *testing.T) {
	m := buildMask(120, 40, rect(5, 5, 110, 30))
	regions := []board.Region{
		region("A", rect(10, 10, 10, 10)),
		region("B", rect(50, 10, 10, 10)),
	}

	g := resolve(t, m, regions, DefaultOptions())
	assert.Equal(t, DefaultMaxEvidence, g.Evidence("A", "B"))

	opts := DefaultOptions()
	opts.MaxEvidence = 1
	g = resolve(t, m, regions, opts)
	assert.Equal(t, 1, g.Evidence("A", "B"))
}

func TestResolve_RectPadding(t *testing.T) {
	// The trace leaves the union of the two boxes and comes back.
	m := buildMask(60, 40,
		rect(8, 5, 4, 17),
		rect(8, 5, 44, 4),
		rect(48, 5, 4, 17),
	)
	regions := []board.Region{
		region("A", rect(5, 20, 10, 10)),
		region("B", rect(45, 20, 10, 10)),
	}

	opts := DefaultOptions()
	assert.Empty(t, resolve(t, m, regions, opts).Netlist())

	opts.RectPadding = 16
	assert.Equal(t, []string{"A -- B"}, resolve(t, m, regions, opts).Netlist())
}

func TestResolve_EmptyRegions(t *testing.T) {
	m := buildMask(10, 10)

	g := resolve(t, m, nil, DefaultOptions())
	assert.Zero(t, g.NodeCount())

	opts := DefaultOptions()
	opts.RequireNodes = true
	_, err := Resolve(context.Background(), m, nil, opts)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestResolve_Rejects(t *testing.T) {
	m := buildMask(50, 50)

	_, err := Resolve(context.Background(), nil, nil, DefaultOptions())
	assert.ErrorIs(t, err, board.ErrInvalidImage)

	_, err = Resolve(context.Background(), m, []board.Region{region("A", rect(45, 45, 10, 10))}, DefaultOptions())
	assert.ErrorIs(t, err, board.ErrInvalidRegion)

	_, err = Resolve(context.Background(), m, []board.Region{
		region("A", rect(0, 0, 5, 5)),
		region("A", rect(10, 10, 5, 5)),
	}, DefaultOptions())
	assert.ErrorIs(t, err, board.ErrInvalidRegion)

	bad := DefaultOptions()
	bad.PerimeterStep = 0
	_, err = Resolve(context.Background(), m, nil, bad)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestResolve_Cancelled(t *testing.T) {
	m := buildMask(120, 40, rect(5, 5, 110, 30))
	regions := []board.Region{
		region("A", rect(10, 10, 10, 10)),
		region("B", rect(50, 10, 10, 10)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, m, regions, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTouchPoints(t *testing.T) {
	m := buildMask(20, 20, rect(2, 1, 1, 1))

	assert.Equal(t, []geometry.PointInt{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}},
		TouchPoints(m, rect(0, 0, 5, 5), 1, 1))
	assert.Empty(t, TouchPoints(m, rect(0, 0, 5, 5), 1, 0))

	corner := buildMask(20, 20, rect(0, 0, 1, 1))
	assert.Equal(t, []geometry.PointInt{{X: 0, Y: 0}}, TouchPoints(corner, rect(0, 0, 5, 5), 4, 0))
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		ok     bool
	}{
		{"defaults", func(*Options) {}, true},
		{"zero radius", func(o *Options) { o.TouchRadius = 0 }, true},
		{"zero step", func(o *Options) { o.PerimeterStep = 0 }, false},
		{"negative radius", func(o *Options) { o.TouchRadius = -1 }, false},
		{"bad adjacency", func(o *Options) { o.Connectivity = 6 }, false},
		{"zero cap", func(o *Options) { o.MaxEvidence = 0 }, false},
		{"negative padding", func(o *Options) { o.RectPadding = -2 }, false},
		{"negative workers", func(o *Options) { o.Workers = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			err := o.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidOptions)
			}
		})
	}
}

func TestParseAdjacency(t *testing.T) {
	a, err := ParseAdjacency(4)
	require.NoError(t, err)
	assert.Equal(t, Four, a)

	a, err = ParseAdjacency(8)
	require.NoError(t, err)
	assert.Equal(t, Eight, a)

	_, err = ParseAdjacency(6)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}
