package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const CookieName = "admin_session"

// OwnerCloser releases resources tied to a session, such as open forms.
type OwnerCloser interface {
	CloseOwner(owner string) int
}

type managed struct {
	session *Session
	cancel  context.CancelFunc
}

// Manager creates one Session per browser and ends it on logout or after
// IdleTimeout without requests.
type Manager struct {
	NewProvider func() Provider
	Owned       OwnerCloser
	IdleTimeout time.Duration
	Secure      bool
	Logger      *zap.SugaredLogger

	base     context.Context
	mu       sync.Mutex
	sessions map[string]*managed
	now      func() time.Time
}

func NewManager(ctx context.Context, newProvider func() Provider, owned OwnerCloser, idle time.Duration, logger *zap.SugaredLogger) *Manager {
	return &Manager{
		NewProvider: newProvider,
		Owned:       owned,
		IdleTimeout: idle,
		Logger:      logger,
		base:        ctx,
		sessions:    make(map[string]*managed),
		now:         time.Now,
	}
}

// Lookup returns the session named by the request cookie.
func (m *Manager) Lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	m.mu.Lock()
	entry, ok := m.sessions[c.Value]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	entry.session.touch(m.now())
	return entry.session, true
}

// Ensure returns the request's session, starting a new one and setting its
// cookie when there is none.
func (m *Manager) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if s, ok := m.Lookup(r); ok {
		return s
	}

	s := m.start()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return s
}

func (m *Manager) start() *Session {
	s := NewSession(uuid.NewString(), m.NewProvider())
	ctx, cancel := context.WithCancel(m.base)

	m.mu.Lock()
	m.sessions[s.ID] = &managed{session: s, cancel: cancel}
	m.mu.Unlock()

	go s.Run(ctx)

	// The first state arrives immediately from the provider; wait for it so
	// guards never see an unresolved slot.
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		m.Logger.Warnw("session provider did not report initial state", "session", s.ID)
	}
	m.Logger.Debugw("session started", "session", s.ID)
	return s
}

// End stops a session and closes everything it owns.
func (m *Manager) End(id string) {
	m.mu.Lock()
	entry, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}

	entry.cancel()
	closed := 0
	if m.Owned != nil {
		closed = m.Owned.CloseOwner(id)
	}
	m.Logger.Infow("session ended", "session", id, "forms_closed", closed)
}

// Sweep ends sessions idle for longer than IdleTimeout and reports how many.
func (m *Manager) Sweep() int {
	if m.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.IdleTimeout)

	m.mu.Lock()
	var expired []string
	for id, entry := range m.sessions {
		if entry.session.idleSince().Before(cutoff) {
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.End(id)
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done, then ends all.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.Close()
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.Logger.Infow("idle sessions swept", "count", n)
			}
		}
	}
}

func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.End(id)
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
