package httpapi

import (
	"context"
	"errors"
	"net/http"

	"overcooked-admin/admin-svc/internal/auth"
	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/client"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/service"
	"overcooked-admin/admin-svc/internal/storage"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Form   *form.View        `json:"form,omitempty"`
}

// statusOf maps an error to the response status and the message shown to
// the operator. Backend failures all surface as the generic banner.
func statusOf(err error) (int, string) {
	var (
		verr   *form.ValidationError
		apiErr *client.APIError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation failed"
	case errors.As(err, &apiErr), errors.Is(err, client.ErrTransport):
		return http.StatusBadGateway, form.BannerError
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrProvider):
		return http.StatusBadGateway, form.BannerError
	case errors.Is(err, form.ErrFormNotFound),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, cache.ErrUnknownResource),
		errors.Is(err, form.ErrItemNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrReadOnly):
		return http.StatusMethodNotAllowed, err.Error()
	case errors.Is(err, form.ErrBusy),
		errors.Is(err, form.ErrStale),
		errors.Is(err, form.ErrNotReady),
		errors.Is(err, form.ErrPristine):
		return http.StatusConflict, err.Error()
	case errors.Is(err, storage.ErrUnsupportedImage):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, form.ErrUnknownField), errors.Is(err, form.ErrDuplicateID):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, form.BannerError
	}
	return http.StatusInternalServerError, "internal error"
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, view *form.View) {
	status, msg := statusOf(err)
	resp := errorResponse{Error: msg, Form: view}

	var verr *form.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	switch {
	case status >= http.StatusInternalServerError:
		h.Logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	default:
		h.Logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
