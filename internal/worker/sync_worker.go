package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/sheets"
)

// YearLoader computes the view of one year. services.LedgerService implements it.
type YearLoader interface {
	LoadYear(ctx context.Context, year int) (core.YearView, error)
}

// GridSyncWorker keeps the spreadsheet mirror of the year grids up to date.
type GridSyncWorker struct {
	loader    YearLoader
	publisher sheets.GridPublisher
	now       func() time.Time

	mu     sync.Mutex
	synced map[int]time.Time
}

func NewGridSyncWorker(loader YearLoader, publisher sheets.GridPublisher) *GridSyncWorker {
	return &GridSyncWorker{
		loader:    loader,
		publisher: publisher,
		now:       time.Now,
		synced:    make(map[int]time.Time),
	}
}

// HandleLedgerChanged republishes the grids a change message affects.
// Recurring item changes also reach the current year, since the item keeps
// projecting charges after the year it was announced for.
func (w *GridSyncWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	if msg == nil {
		return errors.New("nil ledger changed message")
	}
	slog.InfoContext(ctx, "Processing ledger changed message",
		"id", msg.ID,
		"kind", msg.Kind,
		"op", msg.Op,
		"entity_id", msg.EntityID,
		"year", msg.Year)

	years := []int{msg.Year}
	if current := w.now().Year(); msg.Kind == amqp.KindRecurringItem && current != msg.Year {
		years = append(years, current)
	}
	for _, y := range years {
		if err := w.SyncYear(ctx, y); err != nil {
			return err
		}
	}
	return nil
}

// SyncYear loads the year's view and publishes its grid.
func (w *GridSyncWorker) SyncYear(ctx context.Context, year int) error {
	start := w.now()
	view, err := w.loader.LoadYear(ctx, year)
	if err != nil {
		return fmt.Errorf("load year %d: %w", year, err)
	}
	if err := w.publisher.PublishGrid(ctx, view.Grid); err != nil {
		return fmt.Errorf("publish grid %d: %w", year, err)
	}

	w.mu.Lock()
	w.synced[year] = w.now()
	w.mu.Unlock()

	slog.InfoContext(ctx, "Year grid synced",
		"year", year,
		"income_rows", len(view.Grid.IncomeRows),
		"expense_rows", len(view.Grid.ExpenseRows),
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// ResyncCurrentYear is the scheduled full refresh; it also recovers from
// change messages that were lost while the worker was down.
func (w *GridSyncWorker) ResyncCurrentYear(ctx context.Context) error {
	return w.SyncYear(ctx, w.now().Year())
}

// LastSynced reports when year was last published successfully.
func (w *GridSyncWorker) LastSynced(year int) (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.synced[year]
	return t, ok
}
