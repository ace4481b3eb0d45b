package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	httpapi "overcooked-admin/admin-svc/internal/api/http"
	"overcooked-admin/admin-svc/internal/auth"
	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/client"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/mocks"
	"overcooked-admin/admin-svc/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const operatorPassword = "correct horse"

var operator = &domain.Identity{DisplayName: "Ops", Email: "ops@example.com", UID: "u-1", PhotoURL: auth.DefaultPhotoURL}

// stubProvider signs in one operator and reports every change on its
// state stream.
type stubProvider struct {
	states chan *domain.Identity
}

func newStubProvider() auth.Provider {
	return &stubProvider{states: make(chan *domain.Identity, 4)}
}

func (p *stubProvider) SignIn(_ context.Context, email, password string) error {
	if email != operator.Email || password != operatorPassword {
		return auth.ErrInvalidCredentials
	}
	p.states <- operator
	return nil
}

func (p *stubProvider) SignOut(context.Context) error {
	p.states <- nil
	return nil
}

func (p *stubProvider) Watch(context.Context) (<-chan *domain.Identity, func()) {
	p.states <- nil
	return p.states, func() {}
}

type server struct {
	http.Handler
	api      *mocks.BackendAPI
	uploader *mocks.Uploader
	audit    *mocks.AuditLister
	sessions *auth.Manager
}

func newServer(t *testing.T) *server {
	t.Helper()
	logger := zap.NewNop().Sugar()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := &server{
		api:      mocks.NewBackendAPI(t),
		uploader: mocks.NewUploader(t),
		audit:    mocks.NewAuditLister(t),
	}
	mem := cache.NewMemory(nil, 0)
	forms := form.NewRegistry()
	coord := cache.NewCoordinator(mem, nil, nil, nil, logger, "test")
	catalog := service.NewCatalogService(s.api, mem, coord, service.DefaultQRGenerator{BaseURL: "https://shop.example.com"}, logger)
	editor := service.NewEditorService(s.api, coord, s.uploader, catalog, forms, logger)
	s.sessions = auth.NewManager(ctx, newStubProvider, forms, time.Hour, logger)
	t.Cleanup(s.sessions.Close)

	reg := prometheus.NewRegistry()
	handler := httpapi.NewHandler(catalog, editor, service.NewAuditService(s.audit), s.sessions, logger)
	s.Handler = httpapi.NewRouter(handler, httpapi.RouterConfig{
		Metrics:  httpapi.NewRequestMetrics(reg),
		Gatherer: reg,
	})
	return s
}

func (s *server) do(method, target string, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (s *server) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := s.do("POST", "/login", `{"email":"ops@example.com","password":"`+operatorPassword+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		body         string
		wantCode     int
		wantRedirect string
	}{
		{
			name:         "valid credentials",
			target:       "/login?path=%2Fdashboard%2Fmeals",
			body:         `{"email":"ops@example.com","password":"correct horse"}`,
			wantCode:     http.StatusOK,
			wantRedirect: "/dashboard/meals",
		},
		{
			name:         "foreign return path",
			target:       "/login?path=%2F%2Fevil.example.com",
			body:         `{"email":"ops@example.com","password":"correct horse"}`,
			wantCode:     http.StatusOK,
			wantRedirect: auth.DefaultLandingPath,
		},
		{
			name:     "wrong password",
			target:   "/login",
			body:     `{"email":"ops@example.com","password":"nope"}`,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "missing password",
			target:   "/login",
			body:     `{"email":"ops@example.com"}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "invalid JSON",
			target:   "/login",
			body:     `{invalid}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newServer(t)
			w := s.do("POST", testCase.target, testCase.body, nil)

			assert.Equal(t, testCase.wantCode, w.Code)
			if testCase.wantRedirect != "" {
				resp := decodeBody[struct {
					User     domain.Identity `json:"user"`
					Redirect string          `json:"redirect"`
				}](t, w)
				assert.Equal(t, testCase.wantRedirect, resp.Redirect)
				assert.Equal(t, *operator, resp.User)
			}
		})
	}
}

func TestRouteGuards(t *testing.T) {
	s := newServer(t)

	w := s.do("GET", "/api/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decodeBody[map[string]string](t, w)
	assert.Equal(t, "/login?path=%2Fapi%2Fcategories", body["redirect"])

	req := httptest.NewRequest("GET", "/me", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?path=%2Fme", rec.Header().Get("Location"))
	assert.Equal(t, 0, s.sessions.Len())

	cookie := s.login(t)
	w = s.do("GET", "/login?path=%2Fdashboard%2Fusers", "", cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/users", w.Header().Get("Location"))

	w = s.do("GET", "/me", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, operator.Email, decodeBody[domain.Identity](t, w).Email)
}

func TestLogoutHandler(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)

	w := s.do("POST", "/api/categories/forms", "", cookie)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do("POST", "/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, s.sessions.Len())

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListHandler(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		setupMock func(*mocks.BackendAPI)
		wantCode  int
		wantTotal int
	}{
		{
			name:   "categories",
			target: "/api/categories?orderBy=order&order=desc&rowsPerPage=10",
			setupMock: func(m *mocks.BackendAPI) {
				m.On("List", mock.Anything, "categories", mock.Anything).Return(json.RawMessage(categoriesJSON), nil).Once()
			},
			wantCode:  http.StatusOK,
			wantTotal: 2,
		},
		{
			name:   "filtered meals",
			target: "/api/meals?q=caes",
			setupMock: func(m *mocks.BackendAPI) {
				m.On("List", mock.Anything, "meals", mock.Anything).Return(json.RawMessage(mealsJSON), nil).Once()
			},
			wantCode:  http.StatusOK,
			wantTotal: 1,
		},
		{
			name:      "unknown resource",
			target:    "/api/orders",
			setupMock: func(m *mocks.BackendAPI) {},
			wantCode:  http.StatusNotFound,
		},
		{
			name:   "backend error",
			target: "/api/users",
			setupMock: func(m *mocks.BackendAPI) {
				m.On("List", mock.Anything, "users", mock.Anything).
					Return(nil, &client.APIError{Code: 500, Data: json.RawMessage(`"boom"`)}).Once()
			},
			wantCode: http.StatusBadGateway,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newServer(t)
			cookie := s.login(t)
			testCase.setupMock(s.api)

			w := s.do("GET", testCase.target, "", cookie)

			assert.Equal(t, testCase.wantCode, w.Code)
			switch {
			case testCase.wantCode == http.StatusOK:
				page := decodeBody[struct {
					Total int `json:"total"`
				}](t, w)
				assert.Equal(t, testCase.wantTotal, page.Total)
			case testCase.wantCode == http.StatusBadGateway:
				assert.Equal(t, form.BannerError, decodeBody[map[string]any](t, w)["error"])
			}
		})
	}
}

func TestDeleteHandler(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		setupMock func(*mocks.BackendAPI)
		wantCode  int
	}{
		{
			name:   "meal",
			target: "/api/meals/m1",
			setupMock: func(m *mocks.BackendAPI) {
				m.On("Delete", mock.Anything, "meals", "m1").Return(nil).Once()
			},
			wantCode: http.StatusNoContent,
		},
		{
			name:      "read-only resource",
			target:    "/api/projects/p1",
			setupMock: func(m *mocks.BackendAPI) {},
			wantCode:  http.StatusMethodNotAllowed,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newServer(t)
			cookie := s.login(t)
			testCase.setupMock(s.api)

			w := s.do("DELETE", testCase.target, "", cookie)
			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestFormHandlers(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)

	w := s.do("POST", "/api/categories/forms", "", cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[form.View](t, w)
	assert.Equal(t, form.StateReady, view.State)
	assert.Equal(t, "Category", view.Model)

	w = s.do("POST", "/api/forms/"+view.ID+"/submit", "", cookie)
	assert.Equal(t, http.StatusConflict, w.Code, "pristine form")

	w = s.do("PATCH", "/api/forms/"+view.ID+"/fields", `{"nameEN":"S"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[form.View](t, w).Dirty)

	w = s.do("POST", "/api/forms/"+view.ID+"/submit", "", cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	failed := decodeBody[struct {
		Fields map[string]string `json:"fields"`
		Form   *form.View        `json:"form"`
	}](t, w)
	assert.Equal(t, form.MsgTooShort, failed.Fields["nameEN"])
	require.NotNil(t, failed.Form)
	assert.Equal(t, "S", failed.Form.Values["nameEN"])

	w = s.do("PATCH", "/api/forms/"+view.ID+"/fields", `{"color":"red"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.api.On("Create", mock.Anything, "categories", mock.Anything).Return(json.RawMessage(`{"_id":"c3"}`), nil).Once()
	w = s.do("PATCH", "/api/forms/"+view.ID+"/fields", `{"nameEN":"Soups","nameAR":"شوربات","order":3}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do("POST", "/api/forms/"+view.ID+"/submit", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, form.StateDone, decodeBody[form.View](t, w).State)

	w = s.do("GET", "/api/forms/"+view.ID, "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCollectionHandlers(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)
	s.api.On("List", mock.Anything, "categories", mock.Anything).Return(json.RawMessage(categoriesJSON), nil).Once()

	w := s.do("POST", "/api/meals/forms", "", cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[form.View](t, w)

	w = s.do("POST", "/api/forms/"+view.ID+"/collections/addons", `{"id":"cheese","name":{"en":"cheese","ar":"جبن"},"price":0.25}`, cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, decodeBody[form.View](t, w).Collections["addons"], 1)

	w = s.do("POST", "/api/forms/"+view.ID+"/collections/addons", `{"id":"cheese"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("PATCH", "/api/forms/"+view.ID+"/collections/sizes/large", `{"isAvailable":false}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	sizes := decodeBody[form.View](t, w).Collections["sizes"]
	require.Len(t, sizes, 2)
	assert.Equal(t, false, sizes[1]["isAvailable"])

	w = s.do("DELETE", "/api/forms/"+view.ID+"/collections/sizes/medium", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do("DELETE", "/api/forms/"+view.ID+"/collections/addons/cheese", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[form.View](t, w).Collections["addons"])

	w = s.do("DELETE", "/api/forms/"+view.ID, "", cookie)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUploadImageHandler(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)

	w := s.do("POST", "/api/categories/forms", "", cookie)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeBody[form.View](t, w)

	s.uploader.On("UploadImage", mock.Anything, "soup.png", "image/png", mock.Anything).
		Return("https://cdn.example.com/soup.png", nil).Once()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="soup.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte("\x89PNG\r\n\x1a\nrest-of-image"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/forms/"+view.ID+"/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	require.Eventually(t, func() bool {
		w := s.do("GET", "/api/forms/"+view.ID, "", cookie)
		var v form.View
		if json.Unmarshal(w.Body.Bytes(), &v) != nil {
			return false
		}
		return !v.Uploading && v.ImageURL == "https://cdn.example.com/soup.png"
	}, time.Second, 10*time.Millisecond)
}

func TestUploadImageHandler_TooLarge(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "part over the upload limit", size: 10<<20 + 512<<10},
		{name: "body over the request limit", size: 12 << 20},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			s := newServer(t)
			cookie := s.login(t)

			w := s.do("POST", "/api/categories/forms", "", cookie)
			require.Equal(t, http.StatusCreated, w.Code)
			view := decodeBody[form.View](t, w)

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			header := textproto.MIMEHeader{}
			header.Set("Content-Disposition", `form-data; name="image"; filename="huge.png"`)
			header.Set("Content-Type", "image/png")
			part, err := mw.CreatePart(header)
			require.NoError(t, err)
			_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, testCase.size)...))
			require.NoError(t, err)
			require.NoError(t, mw.Close())

			req := httptest.NewRequest("POST", "/api/forms/"+view.ID+"/image", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			req.AddCookie(cookie)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
			if testCase.size < 11<<20 {
				assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			}
			s.uploader.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

			current := decodeBody[form.View](t, s.do("GET", "/api/forms/"+view.ID, "", cookie))
			assert.False(t, current.Uploading)
			assert.Empty(t, current.ImageURL)
		})
	}
}

func TestMealQRCodeHandler(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)
	s.api.On("List", mock.Anything, "meals", mock.Anything).Return(json.RawMessage(mealsJSON), nil).Once()

	w := s.do("GET", "/api/meals/m1/qrcode", "", cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())

	w = s.do("GET", "/api/meals/unknown/qrcode", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditHandler(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t)
	s.audit.On("List", mock.Anything, "meals", 20).Return([]domain.AuditEntry{
		{ID: 2, Resource: "meals", Action: domain.ActionDelete, RecordID: "m1", Actor: "ops@example.com"},
	}, nil).Once()

	w := s.do("GET", "/api/audit?resource=meals&limit=20", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeBody[[]domain.AuditEntry](t, w)
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].RecordID)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	w := s.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decodeBody[map[string]any](t, w)["status"])

	w = s.do("GET", "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `admin_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
