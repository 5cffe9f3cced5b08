package netlist

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/topo"
)

// Net is a maximal set of components mutually reachable through the graph.
type Net struct {
	ID         string   `json:"id"`
	Components []string `json:"components"`
}

// Nets returns the connected components of the graph. Members are sorted,
// nets are ordered by their first member and numbered from net-001. A
// component without edges forms a net of its own.
func (g *Graph) Nets() []Net {
	groups := topo.ConnectedComponents(g.g)

	nets := make([]Net, 0, len(groups))
	for _, group := range groups {
		members := make([]string, len(group))
		for i, n := range group {
			members[i] = g.names[n.ID()]
		}
		sort.Strings(members)
		nets = append(nets, Net{Components: members})
	}
	sort.Slice(nets, func(i, j int) bool {
		return nets[i].Components[0] < nets[j].Components[0]
	})
	for i := range nets {
		nets[i].ID = fmt.Sprintf("net-%03d", i+1)
	}
	return nets
}

// NetOf returns the net containing id.
func (g *Graph) NetOf(id string) (Net, bool) {
	for _, n := range g.Nets() {
		for _, c := range n.Components {
			if c == id {
				return n, true
			}
		}
	}
	return Net{}, false
}

type graphDocument struct {
	Nodes   []string `json:"nodes"`
	Edges   []Edge   `json:"edges"`
	Netlist []string `json:"netlist"`
	Nets    []Net    `json:"nets"`
}

// MarshalJSON encodes the graph with sorted nodes, edges, netlist and nets.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphDocument{
		Nodes:   g.Nodes(),
		Edges:   g.Edges(),
		Netlist: g.Netlist(),
		Nets:    g.Nets(),
	})
}

// UnmarshalJSON rebuilds a graph from its JSON form. Netlist and nets are
// derived views and are ignored on input.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var doc graphDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	fresh := NewGraph()
	for _, id := range doc.Nodes {
		fresh.AddNode(id)
	}
	for _, e := range doc.Edges {
		if err := fresh.AddEdge(e.A, e.B, e.Evidence); err != nil {
			return fmt.Errorf("edge %s: %w", e, err)
		}
	}
	*g = *fresh
	return nil
}
