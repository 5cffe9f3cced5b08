// Package netlist holds the connectivity graph inferred for a board and the
// netlist views derived from it.
package netlist

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrSelfLoop is returned when an edge would join a component to itself.
	ErrSelfLoop = errors.New("self-loop edge")

	// ErrUnknownNode is returned when an edge names a component that is not a node.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNoEvidence is returned for edges with non-positive evidence.
	ErrNoEvidence = errors.New("edge without evidence")
)

// Edge is an undirected connection between two components. A is always the
// lexicographically smaller id.
type Edge struct {
	A        string `json:"a"`
	B        string `json:"b"`
	Evidence int    `json:"evidence"`
}

func (e Edge) String() string {
	return e.A + " -- " + e.B
}

// Graph is an undirected connectivity graph keyed by component id. Edge
// weights are evidence strengths. It is not safe for concurrent mutation.
type Graph struct {
	g     *simple.WeightedUndirectedGraph
	ids   map[string]int64
	names []string // node id -> component id
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		g:   simple.NewWeightedUndirectedGraph(0, 0),
		ids: make(map[string]int64),
	}
}

// AddNode adds a component. It reports false if the id was already present.
func (g *Graph) AddNode(id string) bool {
	if _, ok := g.ids[id]; ok {
		return false
	}
	nid := int64(len(g.names))
	g.ids[id] = nid
	g.names = append(g.names, id)
	g.g.AddNode(simple.Node(nid))
	return true
}

// HasNode reports whether id is a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.ids[id]
	return ok
}

// AddEdge records a connection between a and b. The graph is undirected, so
// (a, b) and (b, a) are the same edge; adding an existing edge keeps one edge
// and merges evidence by taking the larger value.
func (g *Graph) AddEdge(a, b string, evidence int) error {
	if a == b {
		return fmt.Errorf("%w: %q", ErrSelfLoop, a)
	}
	if evidence <= 0 {
		return fmt.Errorf("%w: %q -- %q has %d", ErrNoEvidence, a, b, evidence)
	}
	u, ok := g.ids[a]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, a)
	}
	v, ok := g.ids[b]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNode, b)
	}

	w := float64(evidence)
	if existing, ok := g.g.Weight(u, v); ok && existing >= w {
		return nil
	}
	g.g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(u), T: simple.Node(v), W: w})
	return nil
}

// HasEdge reports whether a and b are connected by an edge.
func (g *Graph) HasEdge(a, b string) bool {
	return g.Evidence(a, b) > 0
}

// Evidence returns the evidence strength of the edge between a and b, or 0.
func (g *Graph) Evidence(a, b string) int {
	u, ok := g.ids[a]
	if !ok {
		return 0
	}
	v, ok := g.ids[b]
	if !ok || u == v {
		return 0
	}
	if e := g.g.WeightedEdge(u, v); e != nil {
		return int(e.Weight())
	}
	return 0
}

// NodeCount returns the number of components.
func (g *Graph) NodeCount() int { return len(g.names) }

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int { return g.g.Edges().Len() }

// Nodes returns the component ids in sorted order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	sort.Strings(out)
	return out
}

// Edges returns every edge sorted by (A, B).
func (g *Graph) Edges() []Edge {
	wes := graph.WeightedEdgesOf(g.g.WeightedEdges())
	edges := make([]Edge, 0, len(wes))
	for _, we := range wes {
		a, b := g.names[we.From().ID()], g.names[we.To().ID()]
		if b < a {
			a, b = b, a
		}
		edges = append(edges, Edge{A: a, B: b, Evidence: int(we.Weight())})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}

// Neighbors returns the components directly connected to id, sorted.
func (g *Graph) Neighbors(id string) []string {
	u, ok := g.ids[id]
	if !ok {
		return nil
	}
	nodes := graph.NodesOf(g.g.From(u))
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.names[n.ID()]
	}
	sort.Strings(out)
	return out
}

// Degree returns the number of edges touching id.
func (g *Graph) Degree(id string) int {
	u, ok := g.ids[id]
	if !ok {
		return 0
	}
	return g.g.From(u).Len()
}

// Netlist formats every edge as "<idA> -- <idB>" in sorted order. The output
// depends only on the graph contents, never on insertion order.
func (g *Graph) Netlist() []string {
	edges := g.Edges()
	lines := make([]string, len(edges))
	for i, e := range edges {
		lines[i] = e.String()
	}
	return lines
}
