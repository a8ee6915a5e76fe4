package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultIdleTTL       = 2 * time.Hour
	defaultSweepInterval = 5 * time.Minute
)

// RegistryConfig wires the registry's dependencies. Zero values fall back to defaults.
type RegistryConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Clock         func() time.Time
	Logger        *zap.Logger
	// OnEvict runs after a session's cart has been discarded.
	OnEvict func(sessionID string)
}

type registryEntry struct {
	store    *Store
	lastSeen time.Time
}

// Registry owns one Store per browsing session. Carts live only in memory
// and are discarded once their session has been idle for IdleTTL.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
	onEvict  func(string)
}

// NewRegistry constructs an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = defaultIdleTTL
	}
	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	onEvict := cfg.OnEvict
	if onEvict == nil {
		onEvict = func(string) {}
	}
	return &Registry{
		entries:  map[string]*registryEntry{},
		ttl:      ttl,
		interval: interval,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
		onEvict:  onEvict,
	}
}

// Store returns the cart for sessionID, creating it on first use. Each call
// counts as activity for idle expiry. An empty session id yields a throwaway cart.
func (r *Registry) Store(sessionID string) *Store {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return NewStore()
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[sessionID]
	if ok {
		entry.lastSeen = now
		return entry.store
	}
	entry = &registryEntry{store: NewStore(), lastSeen: now}
	r.entries[sessionID] = entry
	r.logger.Debug("cart created", zap.String("session_id", sessionID))
	return entry.store
}

// Peek returns the cart for sessionID without creating it or refreshing its activity.
func (r *Registry) Peek(sessionID string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[strings.TrimSpace(sessionID)]
	if !ok {
		return nil, false
	}
	return entry.store, true
}

// Drop discards the cart for sessionID. It reports whether a cart existed.
func (r *Registry) Drop(sessionID string) bool {
	sessionID = strings.TrimSpace(sessionID)
	r.mu.Lock()
	_, ok := r.entries[sessionID]
	delete(r.entries, sessionID)
	r.mu.Unlock()
	if ok {
		r.onEvict(sessionID)
	}
	return ok
}

// Len reports the number of live carts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep discards carts idle since before now-IdleTTL and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.UTC().Add(-r.ttl)
	var expired []string

	r.mu.Lock()
	for id, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, id)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.onEvict(id)
	}
	if len(expired) > 0 {
		r.logger.Info("idle carts evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep(r.now())
		case <-ctx.Done():
			return
		}
	}
}
