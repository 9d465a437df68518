// Package mirror copies saved products to an external spreadsheet.
// Mirroring is best effort: callers log a failure and move on.
package mirror

import (
	"context"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
)

type Mirror interface {
	Append(ctx context.Context, products []model.Product) error
}

// Noop is used when no spreadsheet is configured.
type Noop struct{}

func (Noop) Append(context.Context, []model.Product) error { return nil }
