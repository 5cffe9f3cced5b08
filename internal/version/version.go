// Package version holds build information for pcbnet, set with -ldflags:
//
//	go build -ldflags "-X pcb-netlist/internal/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/pcbnet
package version

var (
	Version   = "0.2.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
