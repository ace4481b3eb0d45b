package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"overcooked-admin/admin-svc/internal/auth"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/listing"
	"overcooked-admin/admin-svc/internal/service"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	maxUploadSize = 10 << 20
	authWait      = 10 * time.Second
)

type Handler struct {
	Catalog  service.CatalogServiceInterface
	Editor   service.EditorServiceInterface
	Audit    service.AuditServiceInterface
	Sessions *auth.Manager
	Logger   *zap.SugaredLogger
}

func NewHandler(catalog service.CatalogServiceInterface, editor service.EditorServiceInterface, audit service.AuditServiceInterface, sessions *auth.Manager, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		Catalog:  catalog,
		Editor:   editor,
		Audit:    audit,
		Sessions: sessions,
		Logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.healthCheck).Methods("GET")

	guest := auth.AlreadyAuth(h.Sessions)
	member := auth.RequireAuth(h.Sessions)

	r.Handle("/login", guest(http.HandlerFunc(h.loginPage))).Methods("GET")
	r.Handle("/login", guest(http.HandlerFunc(h.login))).Methods("POST")
	r.Handle("/logout", member(http.HandlerFunc(h.logout))).Methods("POST")
	r.Handle("/me", member(http.HandlerFunc(h.me))).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(mux.MiddlewareFunc(member))

	api.HandleFunc("/audit", h.getAudit).Methods("GET")
	api.HandleFunc("/meals/{id}/qrcode", h.getMealQRCode).Methods("GET")

	api.HandleFunc("/forms/{formId}", h.getForm).Methods("GET")
	api.HandleFunc("/forms/{formId}", h.closeForm).Methods("DELETE")
	api.HandleFunc("/forms/{formId}/fields", h.setFields).Methods("PATCH")
	api.HandleFunc("/forms/{formId}/collections/{name}", h.addItem).Methods("POST")
	api.HandleFunc("/forms/{formId}/collections/{name}/{itemId}", h.updateItem).Methods("PATCH")
	api.HandleFunc("/forms/{formId}/collections/{name}/{itemId}", h.removeItem).Methods("DELETE")
	api.HandleFunc("/forms/{formId}/image", h.uploadImage).Methods("POST")
	api.HandleFunc("/forms/{formId}/submit", h.submitForm).Methods("POST")

	api.HandleFunc("/{resource}", h.list).Methods("GET")
	api.HandleFunc("/{resource}/forms", h.openAddForm).Methods("POST")
	api.HandleFunc("/{resource}/{id}/forms", h.openEditForm).Methods("POST")
	api.HandleFunc("/{resource}/{id}", h.deleteRecord).Methods("DELETE")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "admin-svc",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func session(r *http.Request) *auth.Session {
	s, _ := auth.SessionFrom(r.Context())
	return s
}

func actor(s *auth.Session) string {
	if id := s.Current(); id != nil {
		return id.Email
	}
	return ""
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": false,
		"path":          auth.SafeReturnPath(r.URL.Query().Get("path")),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "email and password are required"})
		return
	}

	s := session(r)
	if err := s.Login(r.Context(), req.Email, req.Password); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authWait)
	defer cancel()
	identity, err := s.Await(ctx, true)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}

	h.Logger.Infow("operator signed in", "email", identity.Email, "session", s.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":     identity,
		"redirect": auth.SafeReturnPath(r.URL.Query().Get("path")),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if err := s.Logout(r.Context()); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), authWait)
	defer cancel()
	if _, err := s.Await(ctx, false); err != nil {
		h.fail(w, r, err, nil)
		return
	}

	h.Sessions.End(s.ID)
	http.SetCookie(w, &http.Cookie{Name: auth.CookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session(r).Current())
}

func listParams(r *http.Request) service.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	rowsPerPage, _ := strconv.Atoi(q.Get("rowsPerPage"))
	return service.ListParams{
		Query: listing.Query{
			OrderBy: q.Get("orderBy"),
			Order:   listing.ParseDirection(q.Get("order")),
			Filter:  q.Get("q"),
		},
		Page:        page,
		RowsPerPage: rowsPerPage,
		Sort:        q.Get("sort"),
		After:       q.Get("after"),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := listParams(r)

	var (
		page interface{}
		err  error
	)
	switch resource := mux.Vars(r)["resource"]; resource {
	case domain.ResourceCategories:
		page, err = h.Catalog.Categories(ctx, params)
	case domain.ResourceMeals:
		page, err = h.Catalog.Meals(ctx, params)
	case domain.ResourceUsers:
		page, err = h.Catalog.Users(ctx, params)
	case domain.ResourceProjects:
		page, err = h.Catalog.Projects(ctx, params)
	default:
		http.Error(w, "Unknown resource", http.StatusNotFound)
		return
	}
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.Catalog.Delete(r.Context(), vars["resource"], vars["id"], actor(session(r))); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMealQRCode(w http.ResponseWriter, r *http.Request) {
	png, err := h.Catalog.MealQRCode(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) getAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.Audit.Recent(r.Context(), r.URL.Query().Get("resource"), limit)
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) openAddForm(w http.ResponseWriter, r *http.Request) {
	view, err := h.Editor.OpenAdd(r.Context(), session(r).ID, mux.Vars(r)["resource"])
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) openEditForm(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := h.Editor.OpenEdit(r.Context(), session(r).ID, vars["resource"], vars["id"])
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) getForm(w http.ResponseWriter, r *http.Request) {
	view, err := h.Editor.View(session(r).ID, mux.Vars(r)["formId"])
	if err != nil {
		h.fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) closeForm(w http.ResponseWriter, r *http.Request) {
	if err := h.Editor.Close(session(r).ID, mux.Vars(r)["formId"]); err != nil {
		h.fail(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setFields(w http.ResponseWriter, r *http.Request) {
	var values map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.respondForm(w, r, http.StatusOK)(h.Editor.SetFields(session(r).ID, mux.Vars(r)["formId"], values))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var item form.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	h.respondForm(w, r, http.StatusCreated)(h.Editor.AddItem(session(r).ID, vars["formId"], vars["name"], item))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var changes map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	h.respondForm(w, r, http.StatusOK)(h.Editor.UpdateItem(session(r).ID, vars["formId"], vars["name"], vars["itemId"], changes))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.respondForm(w, r, http.StatusOK)(h.Editor.RemoveItem(session(r).ID, vars["formId"], vars["name"], vars["itemId"]))
}

func (h *Handler) uploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "Error retrieving file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		http.Error(w, "Failed to read file", http.StatusBadRequest)
		return
	}
	if len(data) > maxUploadSize {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	view, err := h.Editor.UploadImage(r.Context(), session(r).ID, mux.Vars(r)["formId"], header.Filename, contentType, data)
	h.respondForm(w, r, http.StatusAccepted)(view, err)
}

func (h *Handler) submitForm(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	h.respondForm(w, r, http.StatusOK)(h.Editor.Submit(r.Context(), s.ID, mux.Vars(r)["formId"], actor(s)))
}

// respondForm writes the form view, or the error together with the view
// when the form still exists.
func (h *Handler) respondForm(w http.ResponseWriter, r *http.Request, status int) func(form.View, error) {
	return func(view form.View, err error) {
		if err != nil {
			var current *form.View
			if view.ID != "" {
				current = &view
			}
			h.fail(w, r, err, current)
			return
		}
		writeJSON(w, status, view)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
