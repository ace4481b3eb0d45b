package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const DefaultLandingPath = "/dashboard/projects"

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

// LoginURL is where an unauthenticated request for requested is sent.
func LoginURL(requested string) string {
	return "/login?path=" + url.QueryEscape(requested)
}

// SafeReturnPath accepts only local absolute paths as post-login targets.
func SafeReturnPath(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return DefaultLandingPath
	}
	return p
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// RequireAuth lets signed-in sessions through and sends everyone else to the
// login page, remembering the requested path. It never starts a session.
func RequireAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := m.Lookup(r)
			if !ok || !s.Authed() {
				requested := r.URL.RequestURI()
				if wantsJSON(r) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					json.NewEncoder(w).Encode(map[string]string{
						"error":    ErrUnauthenticated.Error(),
						"path":     requested,
						"redirect": LoginURL(requested),
					})
					return
				}
				http.Redirect(w, r, LoginURL(requested), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// AlreadyAuth guards the login route: signed-in sessions are sent on to the
// path they originally asked for.
func AlreadyAuth(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.Ensure(w, r)
			if s.Authed() {
				http.Redirect(w, r, SafeReturnPath(r.URL.Query().Get("path")), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
