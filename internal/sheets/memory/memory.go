package memory

import (
	"context"
	"log/slog"
	"sync"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

// Publisher keeps the last published grid of each year in memory.
// It stands in for the spreadsheet when none is configured.
type Publisher struct {
	mu        sync.Mutex
	grids     map[int]core.YearGrid
	published int
}

var _ ports.GridPublisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{grids: make(map[int]core.YearGrid)}
}

// PublishGrid stores the grid, replacing any previous one for the same year.
func (p *Publisher) PublishGrid(ctx context.Context, grid core.YearGrid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.grids[grid.Year] = grid
	p.published++
	p.mu.Unlock()

	slog.DebugContext(ctx, "Grid kept in memory",
		"year", grid.Year,
		"income_rows", len(grid.IncomeRows),
		"expense_rows", len(grid.ExpenseRows),
		"net_balance", grid.NetBalance.Units)
	return nil
}

// Grid returns the last grid published for year.
func (p *Publisher) Grid(year int) (core.YearGrid, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g, ok := p.grids[year]
	return g, ok
}

// Published counts PublishGrid calls.
func (p *Publisher) Published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}
