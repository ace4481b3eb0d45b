package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/client"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/storage"

	"go.uber.org/zap"
)

const DefaultRequestTimeout = 30 * time.Second

type EditorServiceInterface interface {
	OpenAdd(ctx context.Context, owner, resource string) (form.View, error)
	OpenEdit(ctx context.Context, owner, resource, id string) (form.View, error)
	View(owner, formID string) (form.View, error)
	Close(owner, formID string) error
	SetFields(owner, formID string, values map[string]any) (form.View, error)
	AddItem(owner, formID, collection string, item form.Item) (form.View, error)
	UpdateItem(owner, formID, collection, itemID string, changes map[string]any) (form.View, error)
	RemoveItem(owner, formID, collection, itemID string) (form.View, error)
	UploadImage(ctx context.Context, owner, formID, filename, contentType string, data []byte) (form.View, error)
	Submit(ctx context.Context, owner, formID, actor string) (form.View, error)
}

// EditorService drives the add and edit forms of categories and meals.
// Record fetches and image uploads run in the background and report back
// to the form through its request tokens.
type EditorService struct {
	api      BackendAPI
	mutator  Mutator
	uploader client.Uploader
	catalog  *CatalogService
	forms    *form.Registry
	logger   *zap.SugaredLogger

	Timeout time.Duration
}

func NewEditorService(api BackendAPI, mutator Mutator, uploader client.Uploader, catalog *CatalogService, forms *form.Registry, logger *zap.SugaredLogger) *EditorService {
	return &EditorService{
		api:      api,
		mutator:  mutator,
		uploader: uploader,
		catalog:  catalog,
		forms:    forms,
		logger:   logger,
		Timeout:  DefaultRequestTimeout,
	}
}

func (s *EditorService) schema(ctx context.Context, resource string) (*form.Schema, error) {
	if err := writable(resource); err != nil {
		return nil, err
	}
	if resource == domain.ResourceCategories {
		return CategorySchema(), nil
	}
	opts, err := s.catalog.CategoryOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("meal form: %w", err)
	}
	return MealSchema(opts), nil
}

func (s *EditorService) OpenAdd(ctx context.Context, owner, resource string) (form.View, error) {
	schema, err := s.schema(ctx, resource)
	if err != nil {
		return form.View{}, err
	}
	ctrl := form.NewController(schema, form.ModeAdd, "")
	s.forms.Open(owner, ctrl)
	return ctrl.View(), nil
}

// OpenEdit opens a form in the loading state and fetches the record in the
// background. The fetch outlives the request that opened the form.
func (s *EditorService) OpenEdit(ctx context.Context, owner, resource, id string) (form.View, error) {
	schema, err := s.schema(ctx, resource)
	if err != nil {
		return form.View{}, err
	}
	ctrl := form.NewController(schema, form.ModeEdit, id)
	s.forms.Open(owner, ctrl)

	token := ctrl.BeginFetch()
	go s.fetch(context.WithoutCancel(ctx), ctrl, token)
	return ctrl.View(), nil
}

func (s *EditorService) fetch(ctx context.Context, ctrl *form.Controller, token form.Token) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resource := ctrl.Schema().Resource
	record, err := s.api.Get(ctx, resource, ctrl.RecordID())
	if err == nil {
		err = ctrl.Populate(token, record)
	}
	switch {
	case err == nil, errors.Is(err, form.ErrStale):
		return
	}

	s.logger.Warnw("fetch for edit failed", "resource", resource, "id", ctrl.RecordID(), "error", err)
	if ferr := ctrl.FetchFailed(token, err); ferr != nil && !errors.Is(ferr, form.ErrStale) {
		s.logger.Errorw("mark fetch failed", "form", ctrl.ID(), "error", ferr)
	}
}

func (s *EditorService) View(owner, formID string) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	return ctrl.View(), nil
}

func (s *EditorService) Close(owner, formID string) error {
	return s.forms.Close(owner, formID)
}

// SetFields applies several field edits in name order and stops at the
// first rejected one.
func (s *EditorService) SetFields(owner, formID string, values map[string]any) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := ctrl.Set(name, values[name]); err != nil {
			return ctrl.View(), err
		}
	}
	return ctrl.View(), nil
}

func (s *EditorService) AddItem(owner, formID, collection string, item form.Item) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	if _, err := ctrl.AddItem(collection, item); err != nil {
		return ctrl.View(), err
	}
	return ctrl.View(), nil
}

func (s *EditorService) UpdateItem(owner, formID, collection, itemID string, changes map[string]any) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := ctrl.UpdateItem(collection, itemID, k, changes[k]); err != nil {
			return ctrl.View(), err
		}
	}
	return ctrl.View(), nil
}

func (s *EditorService) RemoveItem(owner, formID, collection, itemID string) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	if err := ctrl.RemoveItem(collection, itemID); err != nil {
		return ctrl.View(), err
	}
	return ctrl.View(), nil
}

// UploadImage previews the image right away and uploads it in the
// background. A failed upload keeps the previous image and sets the banner.
func (s *EditorService) UploadImage(ctx context.Context, owner, formID, filename, contentType string, data []byte) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}
	if !storage.AllowedImageType(contentType) {
		return ctrl.View(), fmt.Errorf("%w: %s", storage.ErrUnsupportedImage, contentType)
	}

	preview := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	token, err := ctrl.PreviewImage(preview)
	if err != nil {
		return ctrl.View(), err
	}
	go s.upload(context.WithoutCancel(ctx), ctrl, token, filename, contentType, data)
	return ctrl.View(), nil
}

func (s *EditorService) upload(ctx context.Context, ctrl *form.Controller, token form.Token, filename, contentType string, data []byte) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	url, err := s.uploader.UploadImage(ctx, filename, contentType, bytes.NewReader(data))
	if err != nil {
		s.logger.Warnw("image upload failed", "form", ctrl.ID(), "file", filename, "error", err)
		err = ctrl.ImageFailed(token)
	} else {
		err = ctrl.ImageUploaded(token, url)
	}
	if err != nil && !errors.Is(err, form.ErrStale) {
		s.logger.Errorw("apply upload result", "form", ctrl.ID(), "error", err)
	}
}

// Submit creates or updates the record. On success the list cache of the
// resource is invalidated and the form is closed.
func (s *EditorService) Submit(ctx context.Context, owner, formID, actor string) (form.View, error) {
	ctrl, err := s.forms.Get(owner, formID)
	if err != nil {
		return form.View{}, err
	}

	resource := ctrl.Schema().Resource
	mutation := cache.Mutation{Resource: resource, Actor: actor}
	submit := form.SubmitFunc(func(ctx context.Context, payload map[string]any) error {
		if ctrl.Mode() == form.ModeEdit {
			mutation.Action = domain.ActionUpdate
			mutation.RecordID = ctrl.RecordID()
			_, err := s.api.Update(ctx, resource, ctrl.RecordID(), payload)
			return err
		}
		mutation.Action = domain.ActionCreate
		created, err := s.api.Create(ctx, resource, payload)
		if err != nil {
			return err
		}
		mutation.RecordID = createdID(created)
		return nil
	})

	if err := ctrl.Submit(ctx, submit); err != nil {
		return ctrl.View(), err
	}
	if err := s.mutator.Mutated(ctx, mutation); err != nil {
		s.logger.Errorw("invalidate after submit failed", "resource", resource, "error", err)
	}
	view := ctrl.View()
	if err := s.forms.Close(owner, formID); err != nil && !errors.Is(err, form.ErrFormNotFound) {
		s.logger.Warnw("close submitted form", "form", formID, "error", err)
	}
	return view, nil
}

func createdID(data json.RawMessage) string {
	var rec struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
	}
	if json.Unmarshal(data, &rec) != nil {
		return ""
	}
	if rec.ID != "" {
		return rec.ID
	}
	return rec.MongoID
}

var _ EditorServiceInterface = (*EditorService)(nil)
