// Package auth gates the dashboard behind an authenticated operator. Each
// browser gets a Session whose identity slot is written only by the auth
// provider's state stream.
package auth

import (
	"context"
	"errors"
	"net/http"

	"overcooked-admin/admin-svc/internal/domain"
)

var (
	ErrUnauthenticated    = errors.New("auth: not signed in")
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrInvalidToken       = errors.New("auth: invalid id token")
	ErrProvider           = errors.New("auth: provider failure")
)

const DefaultPhotoURL = "/static/mock-images/avatars/avatar_default.jpg"

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider is an external identity provider for one browser session.
type Provider interface {
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	// Watch streams the current identity, then every change. nil means
	// signed out. The stream ends when stop is called or ctx is done.
	Watch(ctx context.Context) (<-chan *domain.Identity, func())
}

// withDefaults fills the fields the dashboard always renders.
func withDefaults(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	out := *id
	if out.PhotoURL == "" {
		out.PhotoURL = DefaultPhotoURL
	}
	if out.DisplayName == "" {
		out.DisplayName = out.Email
	}
	return &out
}
