package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/listing"

	"go.uber.org/zap"
)

type CatalogServiceInterface interface {
	Categories(ctx context.Context, p ListParams) (listing.Page[domain.Category], error)
	Meals(ctx context.Context, p ListParams) (listing.Page[domain.Meal], error)
	Users(ctx context.Context, p ListParams) (UsersPage, error)
	Projects(ctx context.Context, p ListParams) (listing.Page[domain.Project], error)
	Delete(ctx context.Context, resource, id, actor string) error
	CategoryOptions(ctx context.Context) ([]form.Option, error)
	MealQRCode(ctx context.Context, id string) ([]byte, error)
}

type UsersPage struct {
	listing.Page[domain.User]
	// Next is the cursor of the following page, empty on the last one.
	Next string `json:"next,omitempty"`
}

// CatalogService serves the dashboard tables from the shared list cache.
type CatalogService struct {
	api     BackendAPI
	cache   cache.Cache
	mutator Mutator
	qr      QRGenerator
	logger  *zap.SugaredLogger
}

func NewCatalogService(api BackendAPI, c cache.Cache, mutator Mutator, qr QRGenerator, logger *zap.SugaredLogger) *CatalogService {
	return &CatalogService{api: api, cache: c, mutator: mutator, qr: qr, logger: logger}
}

func (s *CatalogService) fetcher(resource string, params url.Values) cache.Fetcher {
	return func(ctx context.Context) (json.RawMessage, error) {
		return s.api.List(ctx, resource, params)
	}
}

func load[T any](ctx context.Context, s *CatalogService, key, resource string, params url.Values) ([]T, error) {
	raw, err := s.cache.Get(ctx, key, s.fetcher(resource, params))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", resource, err)
	}
	rows := []T{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return rows, nil
	}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode %s: %w", resource, err)
	}
	return rows, nil
}

func table[T listing.Row](rows []T, p ListParams) listing.Page[T] {
	return listing.Paginate(listing.Apply(rows, p.Query), p.Page, p.RowsPerPage)
}

func (s *CatalogService) categories(ctx context.Context) ([]domain.Category, error) {
	return load[domain.Category](ctx, s, cache.Keys[domain.ResourceCategories], domain.ResourceCategories, nil)
}

func (s *CatalogService) meals(ctx context.Context) ([]domain.Meal, error) {
	return load[domain.Meal](ctx, s, cache.Keys[domain.ResourceMeals], domain.ResourceMeals, nil)
}

func (s *CatalogService) Categories(ctx context.Context, p ListParams) (listing.Page[domain.Category], error) {
	rows, err := s.categories(ctx)
	if err != nil {
		return listing.Page[domain.Category]{}, err
	}
	return table(rows, p), nil
}

func (s *CatalogService) Meals(ctx context.Context, p ListParams) (listing.Page[domain.Meal], error) {
	rows, err := s.meals(ctx)
	if err != nil {
		return listing.Page[domain.Meal]{}, err
	}
	return table(rows, p), nil
}

// Users loads one cursor page of users from the backend and lays it out as
// a table. The cursor is the phone number of the last user fetched.
func (s *CatalogService) Users(ctx context.Context, p ListParams) (UsersPage, error) {
	var params url.Values
	if p.After != "" {
		params = url.Values{"after": {p.After}}
	}
	rows, err := load[domain.User](ctx, s, cache.UsersPageKey(p.After), domain.ResourceUsers, params)
	if err != nil {
		return UsersPage{}, err
	}

	page := UsersPage{Page: table(rows, p)}
	if len(rows) > 0 {
		page.Next = rows[len(rows)-1].PhoneNumber
	}
	return page, nil
}

// Projects applies the selected sort option unless an explicit column sort
// was requested.
func (s *CatalogService) Projects(ctx context.Context, p ListParams) (listing.Page[domain.Project], error) {
	rows, err := load[domain.Project](ctx, s, cache.Keys[domain.ResourceProjects], domain.ResourceProjects, nil)
	if err != nil {
		return listing.Page[domain.Project]{}, err
	}
	if p.Query.OrderBy == "" {
		filter := p.Query.Filter
		p.Query = listing.LookupSortOption(p.Sort).Query
		p.Query.Filter = filter
	}
	return table(rows, p), nil
}

// Delete removes a record and invalidates the list it belongs to.
func (s *CatalogService) Delete(ctx context.Context, resource, id, actor string) error {
	if err := writable(resource); err != nil {
		return err
	}
	if err := s.api.Delete(ctx, resource, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", resource, id, err)
	}
	mutation := cache.Mutation{
		Resource: resource,
		Action:   domain.ActionDelete,
		RecordID: id,
		Actor:    actor,
	}
	if err := s.mutator.Mutated(ctx, mutation); err != nil {
		s.logger.Errorw("invalidate after delete failed", "resource", resource, "id", id, "error", err)
	}
	return nil
}

// CategoryOptions lists the categories offered by the meal form.
func (s *CatalogService) CategoryOptions(ctx context.Context) ([]form.Option, error) {
	rows, err := s.categories(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]form.Option, 0, len(rows))
	for _, c := range rows {
		opts = append(opts, form.Option{Label: c.Name.EN, Value: c.ID})
	}
	return opts, nil
}

func (s *CatalogService) MealQRCode(ctx context.Context, id string) ([]byte, error) {
	rows, err := s.meals(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range rows {
		if m.ID == id {
			return s.qr.Generate(id)
		}
	}
	return nil, fmt.Errorf("meal %s: %w", id, ErrNotFound)
}

var _ CatalogServiceInterface = (*CatalogService)(nil)
