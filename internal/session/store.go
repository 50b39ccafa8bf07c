// Package session maps opaque session keys to answer engines. Engines
// are created lazily on first use inside a single critical section, so
// concurrent requests for the same unseen key never construct two
// engines. Entries are bounded by a TTL and an LRU cap; the original's
// unbounded process-lifetime map is a known limitation this replaces.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mdchat/internal/chat"
)

// NewKey issues a fresh globally-unique session key. Issuance has no
// effect on the store: the engine is created on the first chat request.
func NewKey() string { return uuid.NewString() }

// Factory constructs the engine for a previously unseen session key.
type Factory func(key string) (*chat.Engine, error)

// Config bounds the store.
type Config struct {
	TTL        time.Duration
	MaxEntries int
}

type entry struct {
	engine   *chat.Engine
	lastUsed time.Time
}

// Store is a concurrency-safe keyed engine store with TTL and LRU
// eviction.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*entry
	factory    Factory
	ttl        time.Duration
	maxEntries int
	log        *zap.Logger
}

func NewStore(factory Factory, cfg Config, log *zap.Logger) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1024
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		entries:    make(map[string]*entry),
		factory:    factory,
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		log:        log,
	}
}

// GetOrCreate returns the engine registered under key, constructing and
// registering it first when absent. The whole check-then-create path
// holds the lock, so exactly one engine is ever reachable per key.
func (s *Store) GetOrCreate(key string) (*chat.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.evictExpiredLocked(now)

	if e, ok := s.entries[key]; ok {
		e.lastUsed = now
		return e.engine, nil
	}
	engine, err := s.factory(key)
	if err != nil {
		return nil, err
	}
	if len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[key] = &entry{engine: engine, lastUsed: now}
	s.log.Debug("session created", zap.String("key", key), zap.Int("sessions", len(s.entries)))
	return engine, nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) evictExpiredLocked(now time.Time) {
	for key, e := range s.entries {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.entries, key)
			s.log.Debug("session expired", zap.String("key", key))
		}
	}
}

func (s *Store) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, e := range s.entries {
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = e.lastUsed
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
		s.log.Debug("session evicted", zap.String("key", oldestKey))
	}
}
