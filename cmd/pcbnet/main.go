// Package main provides the entry point for the pcbnet CLI.
package main

import (
	"fmt"
	"os"

	"pcb-netlist/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
