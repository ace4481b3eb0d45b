package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"

	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/listing"
)

// BackendAPI is the food backend REST API.
type BackendAPI interface {
	List(ctx context.Context, resource string, params url.Values) (json.RawMessage, error)
	Get(ctx context.Context, resource, id string) (map[string]any, error)
	Create(ctx context.Context, resource string, payload map[string]any) (json.RawMessage, error)
	Update(ctx context.Context, resource, id string, payload map[string]any) (json.RawMessage, error)
	Delete(ctx context.Context, resource, id string) error
}

type Mutator interface {
	Mutated(ctx context.Context, m cache.Mutation) error
}

type AuditLister interface {
	List(ctx context.Context, resource string, limit int) ([]domain.AuditEntry, error)
}

var (
	ErrReadOnly = errors.New("resource is read-only")
	ErrNotFound = errors.New("record not found")
)

// ListParams describes one table view: the sort column, the filter and the
// page. Sort selects a project sort option; After is the users cursor.
type ListParams struct {
	Query       listing.Query
	Page        int
	RowsPerPage int
	Sort        string
	After       string
}

func writable(resource string) error {
	if _, err := cache.KeyFor(resource); err != nil {
		return err
	}
	switch resource {
	case domain.ResourceCategories, domain.ResourceMeals:
		return nil
	}
	return ErrReadOnly
}
