package sheets

import (
	"context"

	"ledger/internal/core"
)

// Ports for outbound adapters.
type (
	// GridPublisher mirrors a year grid to an external spreadsheet.
	GridPublisher interface {
		PublishGrid(ctx context.Context, grid core.YearGrid) error
	}
)
