package cache

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"ledger/internal/core"
)

// Cache is the subset of LRUCache the services depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Purge()
	Size() int
}

// YearViews caches computed ledger views keyed by calendar year.
// Every Invalidate starts a new generation; views computed from reads that
// began in an older generation are refused by SetIfCurrent.
type YearViews struct {
	mu         sync.Mutex
	generation uint64
	lru        *LRUCache[core.YearView]
}

func NewYearViews(maxSize int, ttl time.Duration) *YearViews {
	return &YearViews{lru: NewLRUCache[core.YearView](maxSize, ttl)}
}

func (y *YearViews) Get(year int) (core.YearView, bool) {
	return y.lru.Get(strconv.Itoa(year))
}

func (y *YearViews) Set(year int, v core.YearView) {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.lru.Set(strconv.Itoa(year), v)
}

// Generation identifies the current cache generation. Capture it before
// reading the data a view is built from.
func (y *YearViews) Generation() uint64 {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.generation
}

// SetIfCurrent stores v only when no Invalidate happened since generation
// was captured. It reports whether v was stored.
func (y *YearViews) SetIfCurrent(year int, v core.YearView, generation uint64) bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	if generation != y.generation {
		return false
	}
	y.lru.Set(strconv.Itoa(year), v)
	return true
}

// Invalidate drops every year. A recurring item spans years, so a single
// mutation can change any cached view.
func (y *YearViews) Invalidate() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.generation++
	y.lru.Purge()
}

func (y *YearViews) Stats() Stats {
	return y.lru.Stats()
}

// CleanExpired lets a Manager sweep the underlying cache.
func (y *YearViews) CleanExpired() int {
	return y.lru.CleanExpired()
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			totalCleaned := 0
			for _, cache := range m.caches {
				totalCleaned += cache.CleanExpired()
			}
			if totalCleaned > 0 {
				slog.Debug("Expired cache entries removed", "count", totalCleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. It must follow StartCleanup.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
