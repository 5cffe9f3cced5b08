// Package store persists the artifacts of each analysis run under a root
// directory, one sub-directory per run id.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/uuid"

	"pcb-netlist/internal/board"
	"pcb-netlist/internal/netlist"
	"pcb-netlist/internal/pipeline"
)

// Artifact file names written for every run.
const (
	MaskFile    = "mask.png"
	NetlistFile = "netlist.txt"
	ReportFile  = "report.txt"
	GraphFile   = "graph.json"
	RegionsFile = "regions.json"
)

// Artifacts lists every file a run directory holds.
var Artifacts = []string{MaskFile, NetlistFile, ReportFile, GraphFile, RegionsFile}

var (
	// ErrNotFound is returned for unknown runs or artifacts.
	ErrNotFound = errors.New("not found")
	// ErrBadRunID is returned for ids that are not run ids.
	ErrBadRunID = errors.New("invalid run id")
)

// FS stores run directories under Root.
type FS struct{ Root string }

// New creates root if needed and returns a store over it.
func New(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FS{Root: root}, nil
}

// RunDir returns the directory of run id. It does not check that it exists.
func (s *FS) RunDir(id string) string { return filepath.Join(s.Root, id) }

// NewRun allocates a fresh run id and its directory.
func (s *FS) NewRun() (string, error) {
	id := uuid.NewString()
	return id, os.MkdirAll(s.RunDir(id), 0o755)
}

// Save writes the artifacts of res into the run directory.
func (s *FS) Save(id string, res *pipeline.Result) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrBadRunID, id)
	}
	return WriteArtifacts(s.RunDir(id), res)
}

// Open returns the named artifact of a run. Only names in Artifacts are served.
func (s *FS) Open(id, artifact string) (*os.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadRunID, id)
	}
	if !slices.Contains(Artifacts, artifact) {
		return nil, fmt.Errorf("artifact %q: %w", artifact, ErrNotFound)
	}
	f, err := os.Open(filepath.Join(s.RunDir(id), artifact))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("run %s artifact %s: %w", id, artifact, ErrNotFound)
	}
	return f, err
}

// WriteArtifacts writes every artifact of res into dir, creating it if needed.
func WriteArtifacts(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{MaskFile, res.Mask.WritePNG},
		{NetlistFile, func(w io.Writer) error { return netlist.WriteNetlist(w, res.Graph) }},
		{ReportFile, func(w io.Writer) error { return netlist.WriteReport(w, res.Graph, res.Regions) }},
		{GraphFile, func(w io.Writer) error { return writeJSON(w, res.Graph) }},
		{RegionsFile, func(w io.Writer) error { return writeRegions(w, res.Regions) }},
	}
	for _, a := range writers {
		if err := writeFile(filepath.Join(dir, a.name), a.write); err != nil {
			return fmt.Errorf("write %s: %w", a.name, err)
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRegions(w io.Writer, regions []board.Region) error {
	data, err := board.MarshalRegions(regions)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
