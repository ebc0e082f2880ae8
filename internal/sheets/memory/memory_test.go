package memory

import (
	"context"
	"testing"

	"ledger/internal/core"
)

func TestPublisherKeepsLatestGridPerYear(t *testing.T) {
	p := New()
	ctx := context.Background()

	if _, ok := p.Grid(2024); ok {
		t.Fatal("expected no grid before publishing")
	}

	first := core.YearGrid{Year: 2024, NetBalance: core.Money{Units: 10}}
	second := core.YearGrid{Year: 2024, NetBalance: core.Money{Units: 20}}
	other := core.YearGrid{Year: 2025}

	for _, g := range []core.YearGrid{first, second, other} {
		if err := p.PublishGrid(ctx, g); err != nil {
			t.Fatalf("PublishGrid() error = %v", err)
		}
	}

	got, ok := p.Grid(2024)
	if !ok || got.NetBalance.Units != 20 {
		t.Errorf("Grid(2024) = %+v, %v; want the second grid", got, ok)
	}
	if _, ok := p.Grid(2025); !ok {
		t.Error("Grid(2025) missing")
	}
	if p.Published() != 3 {
		t.Errorf("Published() = %d, want 3", p.Published())
	}
}

func TestPublisherHonoursCancelledContext(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.PublishGrid(ctx, core.YearGrid{Year: 2024}); err == nil {
		t.Fatal("expected context error")
	}
	if p.Published() != 0 {
		t.Errorf("Published() = %d, want 0", p.Published())
	}
}
