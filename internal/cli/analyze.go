package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/internal/ocr"
	"pcb-netlist/internal/pipeline"
	"pcb-netlist/internal/store"
)

var (
	analyzeImage   string
	analyzeRegions string
	analyzeOut     string
	analyzeOCR     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build the netlist for a board image",
	Long: `Segment the board image, resolve which components the conductor joins,
and print the netlist report.

Examples:
  pcbnet analyze --image board.jpg --regions detections.json
  pcbnet analyze --image board.jpg --regions detections.json --out ./run1
  pcbnet analyze --image board.jpg --regions detections.json --ocr`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeImage, "image", "i", "", "board image (png, jpeg, gif, tiff, bmp, webp)")
	analyzeCmd.Flags().StringVarP(&analyzeRegions, "regions", "r", "", "region document (JSON)")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "directory for the run artifacts")
	analyzeCmd.Flags().BoolVar(&analyzeOCR, "ocr", false, "name components from their printed markings")
	_ = analyzeCmd.MarkFlagRequired("image")
	_ = analyzeCmd.MarkFlagRequired("regions")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	img, err := board.LoadImage(analyzeImage)
	if err != nil {
		return err
	}
	regions, err := board.LoadRegions(analyzeRegions, board.ParseOptions{MinConfidence: cfg.MinConfidence})
	if err != nil {
		return err
	}
	logger.Info("loaded input", "image", analyzeImage, "width", img.Width(), "height", img.Height(), "components", len(regions))

	opts, err := pipeline.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	if analyzeOCR || cfg.OCR.Enabled {
		engine, err := ocr.NewEngine(cfg.OCR.Language)
		if err != nil {
			return fmt.Errorf("init ocr: %w", err)
		}
		defer engine.Close()
		opts.Reader = engine.Reader(img)
	}

	res, err := pipeline.Analyze(cmd.Context(), img, regions, opts)
	if err != nil {
		return err
	}

	if analyzeOut != "" {
		if err := store.WriteArtifacts(analyzeOut, res); err != nil {
			return fmt.Errorf("write artifacts: %w", err)
		}
		logger.Info("artifacts written", "dir", analyzeOut)
	}

	return netlist.WriteReport(cmd.OutOrStdout(), res.Graph, res.Regions)
}
