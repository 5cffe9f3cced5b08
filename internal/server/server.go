// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/connectivity"
	"pcb-netlist/internal/designator"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/internal/pipeline"
	"pcb-netlist/internal/segment"
	"pcb-netlist/internal/store"
	"pcb-netlist/internal/version"
)

const maxUpload = 64 << 20

// ReaderFactory builds a marking reader for one uploaded image.
type ReaderFactory func(img *board.Image) designator.Reader

// Server handles analysis requests and serves run artifacts.
type Server struct {
	store     *store.FS
	opts      pipeline.Options
	parseOpts board.ParseOptions
	newReader ReaderFactory
	logger    *slog.Logger
}

// New creates a server. newReader may be nil to keep uploaded region ids.
func New(st *store.FS, opts pipeline.Options, parseOpts board.ParseOptions, newReader ReaderFactory, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	opts.Logger = logger
	return &Server{store: st, opts: opts, parseOpts: parseOpts, newReader: newReader, logger: logger}
}

// Router returns the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "pcbnet", "version": version.Version})
	})
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/runs/{id}/{artifact}", s.handleArtifact)
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router(), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("pcbnet listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type analyzeResponse struct {
	RunID      string            `json:"run_id"`
	Components []string          `json:"components"`
	Edges      []netlist.Edge    `json:"edges"`
	Netlist    []string          `json:"netlist"`
	Nets       []netlist.Net     `json:"nets"`
	Artifacts  map[string]string `json:"artifacts"`
	Timings    pipeline.Timings  `json:"timings"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	imgFile, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("missing image upload"))
		return
	}
	defer imgFile.Close()

	img, err := board.DecodeImage(imgFile)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	regionData, err := formBytes(r, "regions")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	regions, err := board.ParseRegions(regionData, s.parseOpts)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	opts := s.opts
	if s.newReader != nil {
		opts.Reader = s.newReader(img)
	}
	res, err := pipeline.Analyze(r.Context(), img, regions, opts)
	if err != nil {
		s.logger.Warn("analysis failed", "error", err)
		writeError(w, statusFor(err), err)
		return
	}

	id, err := s.store.NewRun()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.store.Save(id, res); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("run stored", "run", id, "edges", res.Graph.EdgeCount(), "nets", len(res.Nets))

	artifacts := make(map[string]string, len(store.Artifacts))
	for _, name := range store.Artifacts {
		artifacts[name] = "/runs/" + id + "/" + name
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		RunID:      id,
		Components: board.IDs(res.Regions),
		Edges:      res.Graph.Edges(),
		Netlist:    res.Netlist,
		Nets:       res.Nets,
		Artifacts:  artifacts,
		Timings:    res.Timings,
	})
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	id, artifact := chi.URLParam(r, "id"), chi.URLParam(r, "artifact")
	f, err := s.store.Open(id, artifact)
	switch {
	case errors.Is(err, store.ErrBadRunID), errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	ctype := mime.TypeByExtension(filepath.Ext(artifact))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	if _, err := io.Copy(w, f); err != nil {
		s.logger.Warn("artifact write failed", "run", id, "artifact", artifact, "error", err)
	}
}

// formBytes reads a form field given either as an uploaded file or as a value.
func formBytes(r *http.Request, field string) ([]byte, error) {
	if f, _, err := r.FormFile(field); err == nil {
		defer f.Close()
		return io.ReadAll(f)
	}
	if v := r.FormValue(field); v != "" {
		return []byte(v), nil
	}
	return nil, errors.New("missing " + field)
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, board.ErrInvalidImage),
		errors.Is(err, board.ErrInvalidRegion),
		errors.Is(err, connectivity.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, segment.ErrInvalidOptions),
		errors.Is(err, connectivity.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
}
