package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/segment"
)

var (
	segmentImage     string
	segmentOut       string
	segmentSample    string
	segmentTolerance int
)

var segmentCmd = &cobra.Command{
	Use:   "segment",
	Short: "Write the conductor mask of a board image",
	Long: `Run only the segmentation stage and write the conductor mask as a PNG
(conductor white, background black). Useful for tuning the color model and
kernel size.

Examples:
  pcbnet segment --image board.jpg --out mask.png
  pcbnet segment --image board.jpg --out mask.png --config copper.yaml
  pcbnet segment --image board.jpg --sample-color 184,115,51 --tolerance 30`,
	Args: cobra.NoArgs,
	RunE: runSegment,
}

func init() {
	segmentCmd.Flags().StringVarP(&segmentImage, "image", "i", "", "board image")
	segmentCmd.Flags().StringVarP(&segmentOut, "out", "o", "mask.png", "output PNG")
	segmentCmd.Flags().StringVar(&segmentSample, "sample-color", "", "R,G,B of a conductor pixel; replaces the color model")
	segmentCmd.Flags().IntVar(&segmentTolerance, "tolerance", 40, "HSV tolerance around --sample-color")
	_ = segmentCmd.MarkFlagRequired("image")
}

func runSegment(cmd *cobra.Command, args []string) error {
	img, err := board.LoadImage(segmentImage)
	if err != nil {
		return err
	}
	opts, err := cfg.SegmentOptions()
	if err != nil {
		return err
	}
	if segmentSample != "" {
		rgb, err := parseRGB(segmentSample)
		if err != nil {
			return err
		}
		b := segment.BoundsFromSample(rgb, segmentTolerance)
		opts = opts.WithCustomBounds(b.Lower, b.Upper)
		logger.Debug("sampled color bounds", "rgb", rgb, "lower", b.Lower, "upper", b.Upper)
	}
	m, err := segment.Segment(img, opts)
	if err != nil {
		return err
	}

	f, err := createFile(segmentOut)
	if err != nil {
		return err
	}
	if err := m.WritePNG(f); err != nil {
		f.Close()
		return fmt.Errorf("write mask: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("mask written", "file", segmentOut, "mask pixels", m.Count())
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d of %d pixels are conductor\n", segmentOut, m.Count(), m.Width()*m.Height())
	return nil
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, nil
}

// parseRGB reads "r,g,b" with each channel in 0..255.
func parseRGB(s string) ([3]uint8, error) {
	var rgb [3]uint8
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rgb, fmt.Errorf("sample color must be R,G,B, got %q", s)
	}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return rgb, fmt.Errorf("sample color %q: %w", s, err)
		}
		rgb[i] = uint8(n)
	}
	return rgb, nil
}
