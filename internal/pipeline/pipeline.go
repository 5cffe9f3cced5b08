// Package pipeline runs one analysis: segment the board image, name the
// components, resolve connectivity, and derive the netlist views.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/config"
	"pcb-netlist/internal/connectivity"
	"pcb-netlist/internal/designator"
	"pcb-netlist/internal/mask"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/internal/segment"
)

// Options configures a run.
type Options struct {
	Segment      segment.Options
	Connectivity connectivity.Options

	// Timeout bounds the whole run. Zero means no deadline beyond the caller's.
	Timeout time.Duration

	// Reader, when set, renames regions from their printed markings.
	Reader designator.Reader

	Logger *slog.Logger
}

// DefaultOptions returns the component defaults with no deadline.
func DefaultOptions() Options {
	return Options{
		Segment:      segment.DefaultOptions(),
		Connectivity: connectivity.DefaultOptions(),
	}
}

// OptionsFromConfig converts a loaded configuration.
func OptionsFromConfig(cfg config.Config, logger *slog.Logger) (Options, error) {
	seg, err := cfg.SegmentOptions()
	if err != nil {
		return Options{}, err
	}
	conn, err := cfg.ConnectivityOptions()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Segment:      seg,
		Connectivity: conn,
		Timeout:      cfg.Timeout,
		Logger:       logger,
	}, nil
}

// Timings records how long each stage took.
type Timings struct {
	Segment time.Duration `json:"segment"`
	Naming  time.Duration `json:"naming"`
	Resolve time.Duration `json:"resolve"`
}

// Result is everything one run produces.
type Result struct {
	Regions []board.Region
	Mask    *mask.Mask
	Graph   *netlist.Graph
	Netlist []string
	Nets    []netlist.Net
	Timings Timings
}

// Analyze runs the full pipeline. No partial result is returned on error.
func Analyze(ctx context.Context, img *board.Image, regions []board.Region, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if img == nil {
		return nil, &board.InvalidImageError{Reason: "nil image"}
	}
	if err := board.ValidateRegions(regions, img.Width(), img.Height()); err != nil {
		return nil, err
	}

	var res Result

	start := time.Now()
	m, err := segment.Segment(img, opts.Segment)
	if err != nil {
		return nil, fmt.Errorf("segment: %w", err)
	}
	res.Mask = m
	res.Timings.Segment = time.Since(start)
	logger.Info("segmented board",
		"width", m.Width(), "height", m.Height(),
		"mask pixels", m.Count(), "elapsed", res.Timings.Segment)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Regions = regions
	if opts.Reader != nil {
		start = time.Now()
		named, err := designator.Assign(ctx, regions, opts.Reader, logger)
		if err != nil {
			return nil, fmt.Errorf("name components: %w", err)
		}
		res.Regions = named
		res.Timings.Naming = time.Since(start)
		logger.Info("named components", "components", len(named), "elapsed", res.Timings.Naming)
	}

	start = time.Now()
	g, err := connectivity.Resolve(ctx, m, res.Regions, opts.Connectivity)
	if err != nil {
		return nil, fmt.Errorf("resolve connectivity: %w", err)
	}
	res.Timings.Resolve = time.Since(start)

	res.Graph = g
	res.Netlist = g.Netlist()
	res.Nets = g.Nets()
	logger.Info("resolved connectivity",
		"components", g.NodeCount(), "edges", g.EdgeCount(),
		"nets", len(res.Nets), "elapsed", res.Timings.Resolve)

	return &res, nil
}
