package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"overcooked-admin/admin-svc/internal/domain"
)

const IdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

type FirebaseConfig struct {
	APIKey    string
	ProjectID string
	Endpoint  string
}

// FirebaseProvider signs one browser session in through the Identity
// Toolkit REST API. The verified identity is announced to watchers.
type FirebaseProvider struct {
	cfg      FirebaseConfig
	http     HTTPClient
	verifier *Verifier

	mu       sync.Mutex
	current  *domain.Identity
	watchers map[int]chan *domain.Identity
	next     int
}

func NewFirebaseProvider(cfg FirebaseConfig, client HTTPClient, verifier *Verifier) *FirebaseProvider {
	if cfg.Endpoint == "" {
		cfg.Endpoint = IdentityToolkitURL
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &FirebaseProvider{
		cfg:      cfg,
		http:     client,
		verifier: verifier,
		watchers: make(map[int]chan *domain.Identity),
	}
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	IDToken     string `json:"idToken"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	LocalID     string `json:"localId"`
	Error       *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var credentialErrors = map[string]bool{
	"EMAIL_NOT_FOUND":           true,
	"INVALID_PASSWORD":          true,
	"INVALID_EMAIL":             true,
	"INVALID_LOGIN_CREDENTIALS": true,
	"USER_DISABLED":             true,
	"MISSING_PASSWORD":          true,
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) error {
	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return fmt.Errorf("encode sign-in: %w", err)
	}
	endpoint := p.cfg.Endpoint + "/accounts:signInWithPassword?key=" + url.QueryEscape(p.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sign-in: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	var out signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode sign-in: %v", ErrProvider, err)
	}
	if out.Error != nil {
		// messages look like "INVALID_PASSWORD" or "TOO_MANY_ATTEMPTS_TRY_LATER : ..."
		code, _, _ := strings.Cut(out.Error.Message, " ")
		if credentialErrors[code] {
			return fmt.Errorf("%w: %s", ErrInvalidCredentials, code)
		}
		return fmt.Errorf("%w: %s", ErrProvider, out.Error.Message)
	}

	identity, err := p.verifier.Verify(ctx, out.IDToken)
	if err != nil {
		return err
	}
	if identity.DisplayName == "" {
		identity.DisplayName = out.DisplayName
	}
	if identity.Email == "" {
		identity.Email = out.Email
	}

	p.announce(withDefaults(identity))
	return nil
}

func (p *FirebaseProvider) SignOut(context.Context) error {
	p.announce(nil)
	return nil
}

func (p *FirebaseProvider) announce(id *domain.Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = id
	for _, ch := range p.watchers {
		pushLatest(ch, id)
	}
}

// pushLatest replaces an undelivered state with id, so a slow reader always
// sees the newest state.
func pushLatest(ch chan *domain.Identity, id *domain.Identity) {
	for {
		select {
		case ch <- id:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (p *FirebaseProvider) Watch(ctx context.Context) (<-chan *domain.Identity, func()) {
	p.mu.Lock()
	ch := make(chan *domain.Identity, 1)
	id := p.next
	p.next++
	p.watchers[id] = ch
	ch <- p.current
	p.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.watchers, id)
			close(ch)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return ch, stop
}
