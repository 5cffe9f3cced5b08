package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/designator"
	"pcb-netlist/internal/ocr"
	"pcb-netlist/internal/pipeline"
	"pcb-netlist/internal/server"
	"pcb-netlist/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Start the HTTP API:

  GET  /health
  POST /analyze                 multipart: image, regions
  GET  /runs/{id}/{artifact}    mask.png, netlist.txt, report.txt, graph.json, regions.json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	st, err := store.New(cfg.DataRoot)
	if err != nil {
		return fmt.Errorf("open data root: %w", err)
	}
	opts, err := pipeline.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}

	var newReader server.ReaderFactory
	if cfg.OCR.Enabled {
		engine, err := ocr.NewEngine(cfg.OCR.Language)
		if err != nil {
			return fmt.Errorf("init ocr: %w", err)
		}
		defer engine.Close()
		newReader = func(img *board.Image) designator.Reader { return engine.Reader(img) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(st, opts, board.ParseOptions{MinConfidence: cfg.MinConfidence}, newReader, logger)
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
