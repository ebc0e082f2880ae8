package cache

import (
	"testing"
	"time"

	"ledger/internal/core"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", 3) // evicts b, a was used more recently

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d (%v)", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Millisecond)
	c.Set("k", "v")
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}

	c.Set("x", "1")
	c.Set("y", "2")
	time.Sleep(5 * time.Millisecond)
	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("CleanExpired removed %d, want 2", n)
	}
}

func TestLRUCacheStatsAndPurge(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 || st.Size != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}

	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("size after purge = %d", c.Size())
	}
	c.Set("b", 2)
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Fatalf("cache unusable after purge")
	}
}

func TestYearViews(t *testing.T) {
	views := NewYearViews(4, time.Minute)
	v := core.BuildYearView(nil, nil, 2024)
	views.Set(2024, v)
	views.Set(2025, core.BuildYearView(nil, nil, 2025))

	got, ok := views.Get(2024)
	if !ok || got.Grid.Year != 2024 {
		t.Fatalf("expected cached 2024 view, got %+v (%v)", got.Grid, ok)
	}

	views.Invalidate()
	if _, ok := views.Get(2025); ok {
		t.Fatalf("expected every year to be dropped")
	}
}

func TestYearViewsRefuseStaleGeneration(t *testing.T) {
	views := NewYearViews(4, time.Minute)
	gen := views.Generation()

	views.Invalidate()
	if views.SetIfCurrent(2024, core.BuildYearView(nil, nil, 2024), gen) {
		t.Fatal("SetIfCurrent accepted a view from before Invalidate")
	}
	if _, ok := views.Get(2024); ok {
		t.Fatal("stale view was cached")
	}

	if !views.SetIfCurrent(2024, core.BuildYearView(nil, nil, 2024), views.Generation()) {
		t.Fatal("SetIfCurrent refused the current generation")
	}
	if _, ok := views.Get(2024); !ok {
		t.Fatal("expected cached 2024 view")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set("a", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(2 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for c.Size() > 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if c.Size() != 0 {
		t.Fatalf("manager did not clean expired entries")
	}
}
