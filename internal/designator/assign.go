package designator

import (
	"context"
	"log/slog"

	"pcb-netlist/internal/board"
	"pcb-netlist/pkg/geometry"
)

// Reader reads the markings printed inside a box of the board image.
type Reader interface {
	ReadText(ctx context.Context, box geometry.RectInt) (string, error)
}

// Assign returns a copy of regions with fresh ids. Parts that carry
// markings (see ReadsMarking) are read with r (when r is non-nil); anything unreadable falls
// back to a generic name. Names are unique within the result. Read failures
// are logged and never fail the run.
func Assign(ctx context.Context, regions []board.Region, r Reader, logger *slog.Logger) ([]board.Region, error) {
	if logger == nil {
		logger = slog.Default()
	}
	counter := NewCounter()
	out := make([]board.Region, len(regions))

	for i, reg := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		class := ClassOf(reg.ClassLabel)

		var name string
		if r != nil && ReadsMarking(reg.ClassLabel) {
			text, err := r.ReadText(ctx, reg.Box)
			switch {
			case err != nil:
				logger.Warn("ocr failed, using generic name", "region", reg.ID, "error", err)
			case Normalize(text) == "":
				logger.Debug("no legible marking", "region", reg.ID, "class", class)
			default:
				name = counter.Claim(Normalize(text))
			}
		}
		if name == "" {
			name = counter.Generic(class)
		}

		logger.Debug("named component", "region", reg.ID, "class", class, "name", name)
		out[i] = reg
		out[i].ID = name
	}
	return out, nil
}
