package netlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"pcb-netlist/internal/board"
)

const reportRule = 50

// WriteReport writes a plain-text netlist report: the component table, each
// connection with its evidence, the derived nets and totals. regions supply
// class labels and the component listing order.
func WriteReport(w io.Writer, g *Graph, regions []board.Region) error {
	bw := bufio.NewWriter(w)
	heavy := strings.Repeat("=", reportRule)
	light := strings.Repeat("-", reportRule)

	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw, "PCB NETLIST REPORT")
	fmt.Fprintln(bw, heavy)
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "COMPONENTS:")
	fmt.Fprintln(bw, light)
	for _, r := range regions {
		fmt.Fprintf(bw, "%-10s | %-20s | degree %d\n", r.ID, r.ClassLabel, g.Degree(r.ID))
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "CONNECTIONS (Netlist):")
	fmt.Fprintln(bw, light)
	edges := g.Edges()
	for _, e := range edges {
		fmt.Fprintf(bw, "%s  [evidence %d]\n", e, e.Evidence)
	}
	fmt.Fprintln(bw)

	nets := g.Nets()
	fmt.Fprintln(bw, "NETS:")
	fmt.Fprintln(bw, light)
	for _, n := range nets {
		fmt.Fprintf(bw, "%s: %s\n", n.ID, strings.Join(n.Components, ", "))
	}
	fmt.Fprintln(bw)

	fmt.Fprintf(bw, "Total Components: %d\n", g.NodeCount())
	fmt.Fprintf(bw, "Total Connections: %d\n", len(edges))
	fmt.Fprintf(bw, "Total Nets: %d\n", len(nets))

	return bw.Flush()
}

// WriteNetlist writes one "<idA> -- <idB>" line per edge.
func WriteNetlist(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, line := range g.Netlist() {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}
