package cache

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	data      json.RawMessage
	stale     bool
	fetchedAt time.Time
}

// Memory is a process-local Cache. Each key carries a generation that is
// bumped on invalidation, so a fetch that started before an invalidation can
// never be stored as fresh. Entries older than TTL are refetched; a zero TTL
// keeps them until invalidated.
type Memory struct {
	TTL     time.Duration
	mu      sync.Mutex
	entries map[string]*memoryEntry
	gens    map[string]uint64
	hub     *hub
	metrics *Metrics
	now     func() time.Time
}

func NewMemory(metrics *Metrics, ttl time.Duration) *Memory {
	return &Memory{
		TTL:     ttl,
		entries: make(map[string]*memoryEntry),
		gens:    make(map[string]uint64),
		hub:     newHub(),
		metrics: metrics,
		now:     time.Now,
	}
}

func (m *Memory) usable(e *memoryEntry, now time.Time) bool {
	if e.stale {
		return false
	}
	return m.TTL <= 0 || now.Sub(e.fetchedAt) <= m.TTL
}

// prune drops expired entries so per-cursor keys do not accumulate.
// Callers hold mu.
func (m *Memory) prune(now time.Time) {
	if m.TTL <= 0 {
		return
	}
	for key, e := range m.entries {
		if now.Sub(e.fetchedAt) > m.TTL {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) Get(ctx context.Context, key string, fetch Fetcher) (json.RawMessage, error) {
	m.mu.Lock()
	if e, ok := m.entries[key]; ok && m.usable(e, m.now()) {
		data := slices.Clone(e.data)
		m.mu.Unlock()
		m.metrics.hit(key)
		return data, nil
	}
	gen := m.gens[key]
	m.mu.Unlock()

	m.metrics.miss(key)
	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	now := m.now()
	m.prune(now)
	fresh := m.gens[key] == gen
	if fresh {
		m.entries[key] = &memoryEntry{data: slices.Clone(data), fetchedAt: now}
	} else if cur, ok := m.entries[key]; !ok || cur.stale {
		m.entries[key] = &memoryEntry{data: slices.Clone(data), stale: true, fetchedAt: now}
	}
	m.mu.Unlock()

	if fresh {
		m.hub.publish(Event{Key: key, Kind: EventRefreshed, At: m.now()})
	}
	return data, nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	m.gens[key]++
	if e, ok := m.entries[key]; ok {
		e.stale = true
	}
	m.mu.Unlock()

	m.metrics.invalidated(key)
	m.hub.publish(Event{Key: key, Kind: EventInvalidated, At: m.now()})
	return nil
}

func (m *Memory) Subscribe(key string) (<-chan Event, func()) {
	return m.hub.subscribe(key)
}

// Stale reports whether key holds data that must be refetched before use.
// Missing and expired keys are stale.
func (m *Memory) Stale(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	return !ok || !m.usable(e, m.now())
}

// Len reports the number of stored entries, stale ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
