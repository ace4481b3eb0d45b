package auth

import (
	"context"
	"sync"
	"time"

	"overcooked-admin/admin-svc/internal/domain"
)

// Session holds at most one identity. Only Run writes the slot, from the
// provider's state stream; Login and Logout merely ask the provider.
type Session struct {
	ID       string
	provider Provider

	mu       sync.RWMutex
	identity *domain.Identity
	lastSeen time.Time
	subs     map[int]chan *domain.Identity
	next     int
	ready    chan struct{}
	once     sync.Once
}

func NewSession(id string, provider Provider) *Session {
	return &Session{
		ID:       id,
		provider: provider,
		lastSeen: time.Now(),
		subs:     make(map[int]chan *domain.Identity),
		ready:    make(chan struct{}),
	}
}

// Run applies provider state changes until ctx is done.
func (s *Session) Run(ctx context.Context) {
	states, stop := s.provider.Watch(ctx)
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-states:
			if !ok {
				return
			}
			s.set(id)
		}
	}
}

func (s *Session) set(id *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = id
	for _, ch := range s.subs {
		pushLatest(ch, id)
	}
	s.once.Do(func() { close(s.ready) })
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.provider.SignIn(ctx, email, password)
}

func (s *Session) Logout(ctx context.Context) error {
	return s.provider.SignOut(ctx)
}

// Current returns a copy of the identity, or nil when signed out.
func (s *Session) Current() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Session) Authed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

func (s *Session) Subscribe() (<-chan *domain.Identity, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *domain.Identity, 1)
	id := s.next
	s.next++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// Await blocks until the slot is signed in (authed) or out (!authed), or ctx
// is done.
func (s *Session) Await(ctx context.Context, authed bool) (*domain.Identity, error) {
	changes, cancel := s.Subscribe()
	defer cancel()

	if s.Authed() == authed {
		return s.Current(), nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case id := <-changes:
			if (id != nil) == authed {
				return s.Current(), nil
			}
		}
	}
}

// Ready is closed once the provider has reported its first state.
func (s *Session) Ready() <-chan struct{} { return s.ready }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
