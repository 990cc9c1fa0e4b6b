package session

import (
	"log/slog"
	"sync"

	"github.com/sakachris/ecom-frontend/internal/tokenstore"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// Registry hands out the Manager for a session ID, creating it on first
// sight. Managers are cheap until hydrated, so unknown IDs cost little.
type Registry struct {
	store  tokenstore.Store
	api    *upstream.Client
	logger *slog.Logger

	mu       sync.RWMutex
	managers map[string]*Manager
}

// NewRegistry creates an empty registry.
func NewRegistry(store tokenstore.Store, api *upstream.Client, logger *slog.Logger) *Registry {
	return &Registry{
		store:    store,
		api:      api,
		logger:   logger,
		managers: make(map[string]*Manager),
	}
}

// Get returns the manager for sid, creating it if needed. Concurrent calls
// for the same sid get the same manager.
func (r *Registry) Get(sid string) *Manager {
	r.mu.RLock()
	m, ok := r.managers[sid]
	r.mu.RUnlock()
	if ok {
		return m
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.managers[sid]; ok {
		return m
	}
	m = NewManager(sid, r.store, r.api, r.logger)
	r.managers[sid] = m
	return m
}

// Evict drops the manager for sid. The next request recreates and rehydrates
// it from the store.
func (r *Registry) Evict(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, sid)
}

// Len reports how many managers are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}
