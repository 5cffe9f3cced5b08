package board

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"pcb-netlist/pkg/geometry"
)

//go:embed regions.schema.json
var regionsSchemaJSON string

var regionsSchema = jsonschema.MustCompileString("regions.schema.json", regionsSchemaJSON)

// Box anchors accepted in a region document.
const (
	AnchorTopLeft = "top-left"
	AnchorCenter  = "center" // x, y are the box centre, as most detectors report
)

// ParseOptions controls how a region document is turned into regions.
type ParseOptions struct {
	// MinConfidence drops detections whose confidence is below this value.
	// Records without a confidence are always kept.
	MinConfidence float64
}

type regionDocument struct {
	Anchor  string         `json:"anchor"`
	Regions []regionRecord `json:"regions"`
}

type regionRecord struct {
	ID         string           `json:"id"`
	ClassLabel string           `json:"class_label"`
	BBox       geometry.RectInt `json:"bbox"`
	Confidence *float64         `json:"confidence,omitempty"`
}

// LoadRegions reads a region document from disk.
func LoadRegions(path string, opts ParseOptions) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions: %w", err)
	}
	return ParseRegions(data, opts)
}

// ParseRegions validates a region document against the embedded schema and
// converts it to regions. Both the wrapped form {"anchor", "regions"} and a
// bare array of region records are accepted. Geometry is not checked here;
// that happens against the mask dimensions in the resolver.
func ParseRegions(data []byte, opts ParseOptions) ([]Region, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("region document: %w", err)
	}
	if err := regionsSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("region document: %w", err)
	}

	var doc regionDocument
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(data, &doc.Regions); err != nil {
			return nil, fmt.Errorf("region document: %w", err)
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("region document: %w", err)
	}

	regions := make([]Region, 0, len(doc.Regions))
	for _, rec := range doc.Regions {
		if rec.Confidence != nil && *rec.Confidence < opts.MinConfidence {
			continue
		}
		box := rec.BBox
		if doc.Anchor == AnchorCenter {
			box = geometry.FromCenter(box.X, box.Y, box.Width, box.Height)
		}
		regions = append(regions, Region{ID: rec.ID, Box: box, ClassLabel: rec.ClassLabel})
	}
	return regions, nil
}

// MarshalRegions writes regions as a top-left anchored region document.
func MarshalRegions(regions []Region) ([]byte, error) {
	doc := regionDocument{Anchor: AnchorTopLeft, Regions: make([]regionRecord, len(regions))}
	for i, r := range regions {
		doc.Regions[i] = regionRecord{ID: r.ID, ClassLabel: r.ClassLabel, BBox: r.Box}
	}
	return json.MarshalIndent(doc, "", "  ")
}
