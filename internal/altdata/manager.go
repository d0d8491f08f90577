package altdata

import (
	"context"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Manager registers sources and collects every category for a borrower,
// caching fetched rows per borrower so repeated assessments do not re-hit
// providers.
type Manager struct {
	mu      sync.Mutex
	sources map[string]Source
	cache   map[string]map[string]Row
}

// NewManager returns a manager over the given sources; nil selects the
// built-in simulated providers.
func NewManager(sources ...Source) *Manager {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	m := &Manager{
		sources: make(map[string]Source, len(sources)),
		cache:   make(map[string]map[string]Row),
	}
	for _, s := range sources {
		m.sources[s.Category()] = s
	}
	return m
}

// Register adds or replaces a source and invalidates the cache.
func (m *Manager) Register(s Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[s.Category()] = s
	m.cache = make(map[string]map[string]Row)
}

// Source returns the registered source for a category, if any.
func (m *Manager) Source(category string) (Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[category]
	return s, ok
}

// CollectAll fetches every registered category for a borrower in parallel.
// Individual provider failures are logged and skipped; the missing category
// scores neutrally downstream. The returned map is cached per borrower.
func (m *Manager) CollectAll(ctx context.Context, borrowerID string) (map[string]Row, error) {
	m.mu.Lock()
	if cached, ok := m.cache[borrowerID]; ok {
		m.mu.Unlock()
		return cached, nil
	}
	sources := make([]Source, 0, len(m.sources))
	for _, s := range m.sources {
		sources = append(sources, s)
	}
	m.mu.Unlock()

	collected := make(map[string]Row, len(sources))
	var collectedMu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, src := range sources {
		src := src
		g.Go(func() error {
			row, err := src.Fetch(ctx, borrowerID)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("provider %s failed for borrower %s: %v", src.Category(), borrowerID, err)
				return nil
			}
			collectedMu.Lock()
			collected[src.Category()] = row
			collectedMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[borrowerID] = collected
	m.mu.Unlock()
	return collected, nil
}
