// Package cache keeps the dashboard list responses and invalidates them
// after mutations.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Fetcher loads the fresh list for a key from the backend.
type Fetcher func(ctx context.Context) (json.RawMessage, error)

type EventKind string

const (
	EventInvalidated EventKind = "invalidated"
	EventRefreshed   EventKind = "refreshed"
)

type Event struct {
	Key  string    `json:"key"`
	Kind EventKind `json:"kind"`
	At   time.Time `json:"at"`
}

type Cache interface {
	// Get returns the cached list for key, calling fetch when the entry is
	// missing or stale.
	Get(ctx context.Context, key string, fetch Fetcher) (json.RawMessage, error)
	// Invalidate marks key stale. It is idempotent.
	Invalidate(ctx context.Context, key string) error
	// Subscribe streams events for key until cancel is called.
	Subscribe(key string) (<-chan Event, func())
}

const subscriberBuffer = 16

// hub fans events out to subscribers. Slow subscribers miss events rather
// than block the publisher.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan Event
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan Event)}
}

func (h *hub) subscribe(key string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	id := h.next
	h.next++
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]chan Event)
	}
	h.subs[key][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[key], id)
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
			close(ch)
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[ev.Key] {
		select {
		case ch <- ev:
		default:
		}
	}
}
