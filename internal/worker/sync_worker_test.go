package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/sheets"
	"ledger/internal/sheets/memory"
)

type stubLoader struct {
	calls []int
	err   error
}

func (l *stubLoader) LoadYear(_ context.Context, year int) (core.YearView, error) {
	l.calls = append(l.calls, year)
	if l.err != nil {
		return core.YearView{}, l.err
	}
	return core.YearView{Grid: core.YearGrid{Year: year}}, nil
}

type failingPublisher struct{}

func (failingPublisher) PublishGrid(context.Context, core.YearGrid) error {
	return errors.New("quota exceeded")
}

func newTestWorker(loader YearLoader, pub sheets.GridPublisher) *GridSyncWorker {
	w := NewGridSyncWorker(loader, pub)
	w.now = func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) }
	return w
}

func TestHandleLedgerChanged(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		year  int
		years []int
	}{
		{"record in current year", amqp.KindRecord, 2024, []int{2024}},
		{"record in past year", amqp.KindRecord, 2022, []int{2022}},
		{"item starting next year", amqp.KindRecurringItem, 2025, []int{2025, 2024}},
		{"item in current year", amqp.KindRecurringItem, 2024, []int{2024}},
		{"resync", amqp.KindResync, 2023, []int{2023}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := &stubLoader{}
			pub := memory.New()
			w := newTestWorker(loader, pub)

			msg := amqp.NewLedgerChangedMessage(tt.kind, amqp.OpUpdate, "x", tt.year)
			if err := w.HandleLedgerChanged(context.Background(), msg); err != nil {
				t.Fatalf("HandleLedgerChanged() error = %v", err)
			}
			if len(loader.calls) != len(tt.years) {
				t.Fatalf("loaded years %v, want %v", loader.calls, tt.years)
			}
			for i, y := range tt.years {
				if loader.calls[i] != y {
					t.Errorf("loaded years %v, want %v", loader.calls, tt.years)
				}
				if _, ok := pub.Grid(y); !ok {
					t.Errorf("grid %d not published", y)
				}
				if _, ok := w.LastSynced(y); !ok {
					t.Errorf("LastSynced(%d) missing", y)
				}
			}
		})
	}
}

func TestHandleLedgerChangedNilMessage(t *testing.T) {
	w := newTestWorker(&stubLoader{}, memory.New())
	if err := w.HandleLedgerChanged(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}

func TestSyncYearErrors(t *testing.T) {
	t.Run("load failure", func(t *testing.T) {
		pub := memory.New()
		w := newTestWorker(&stubLoader{err: errors.New("db down")}, pub)
		if err := w.SyncYear(context.Background(), 2024); err == nil {
			t.Fatal("expected error")
		}
		if pub.Published() != 0 {
			t.Error("nothing should be published when loading fails")
		}
	})

	t.Run("publish failure", func(t *testing.T) {
		w := newTestWorker(&stubLoader{}, failingPublisher{})
		if err := w.SyncYear(context.Background(), 2024); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := w.LastSynced(2024); ok {
			t.Error("failed sync must not be recorded")
		}
	})
}

func TestResyncCurrentYear(t *testing.T) {
	loader := &stubLoader{}
	w := newTestWorker(loader, memory.New())
	if err := w.ResyncCurrentYear(context.Background()); err != nil {
		t.Fatalf("ResyncCurrentYear() error = %v", err)
	}
	if len(loader.calls) != 1 || loader.calls[0] != 2024 {
		t.Errorf("loaded years %v, want [2024]", loader.calls)
	}
}
