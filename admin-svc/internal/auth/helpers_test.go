package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"overcooked-admin/admin-svc/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testProject = "overcooked-test"

func newSigningCert(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func validClaims() FirebaseClaims {
	now := time.Now()
	return FirebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			Subject:   "uid-1",
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "ops@example.com",
		Name:  "Ops Team",
	}
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims FirebaseClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

type staticKeys map[string]*rsa.PublicKey

func (k staticKeys) Key(_ context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok := k[kid]
	if !ok {
		return nil, errors.New("unknown kid")
	}
	return key, nil
}

// fakeProvider emits the configured user on sign-in, like a provider whose
// state stream follows each successful call.
type fakeProvider struct {
	mu        sync.Mutex
	user      *domain.Identity
	signInErr error
	states    chan *domain.Identity
	signIns   int
	silent    bool
}

func newFakeProvider(user *domain.Identity) *fakeProvider {
	return &fakeProvider{user: user, states: make(chan *domain.Identity, 8)}
}

func (p *fakeProvider) SignIn(_ context.Context, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signIns++
	if p.signInErr != nil {
		return p.signInErr
	}
	if !p.silent {
		p.states <- p.user
	}
	return nil
}

func (p *fakeProvider) SignOut(context.Context) error {
	p.states <- nil
	return nil
}

func (p *fakeProvider) Watch(context.Context) (<-chan *domain.Identity, func()) {
	p.states <- nil
	return p.states, func() {}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
