// Package form keeps the state of an add or edit form in sync with the
// remote record it was loaded from.
package form

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"sync"

	"overcooked-admin/admin-svc/internal/domain"

	"github.com/google/uuid"
)

type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

type Mode string

const (
	ModeAdd  Mode = "add"
	ModeEdit Mode = "edit"
)

// FieldImage is the record key holding the uploaded image URL.
const FieldImage = "imageURL"

type Values map[string]any

// Token identifies one outstanding asynchronous request. Responses carrying
// an older token are discarded.
type Token uint64

type Submitter interface {
	Submit(ctx context.Context, payload map[string]any) error
}

type SubmitFunc func(ctx context.Context, payload map[string]any) error

func (f SubmitFunc) Submit(ctx context.Context, payload map[string]any) error {
	return f(ctx, payload)
}

type Controller struct {
	mu sync.Mutex

	id       string
	schema   *Schema
	mode     Mode
	recordID string

	state       State
	values      Values
	snapshot    Values
	collections map[string]*Collection

	image       string
	syncedImage string
	preview     string

	fetchToken Token
	imageToken Token
	closed     bool

	banner string
	errors map[string]string
}

// NewController returns a form for schema. Add forms start ready with the
// schema defaults; edit forms start loading and wait for Populate.
func NewController(schema *Schema, mode Mode, recordID string) *Controller {
	c := &Controller{
		id:       uuid.NewString(),
		schema:   schema,
		mode:     mode,
		recordID: recordID,
		state:    StateLoading,
	}
	if mode == ModeAdd {
		c.values = schema.Defaults()
		c.collections = defaultCollections(schema)
		c.snapshot = maps.Clone(c.values)
		c.state = StateReady
	}
	return c
}

func defaultCollections(schema *Schema) map[string]*Collection {
	out := make(map[string]*Collection, len(schema.Collections))
	for _, spec := range schema.Collections {
		out[spec.Name] = templateCollection(spec)
	}
	return out
}

func templateCollection(spec CollectionSpec) *Collection {
	c := &Collection{items: make(map[string]Item, len(spec.Defaults))}
	for _, it := range spec.Defaults {
		next := cloneItem(it)
		id := next.ID()
		if id == "" {
			id = uuid.NewString()
			next["id"] = id
		}
		c.order = append(c.order, id)
		c.items[id] = next
	}
	return c
}

func (c *Controller) ID() string { return c.id }

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) RecordID() string { return c.recordID }

func (c *Controller) Schema() *Schema { return c.schema }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// BeginFetch marks the form as loading and returns the token the fetch
// response must present.
func (c *Controller) BeginFetch() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchToken++
	c.state = StateLoading
	c.banner = ""
	return c.fetchToken
}

// Populate fills the form from a fetched record.
func (c *Controller) Populate(token Token, record map[string]any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.fetchToken {
		return ErrStale
	}

	flat := domain.ToForm(record)
	values := make(Values, len(c.schema.Fields))
	for _, f := range c.schema.Fields {
		v := flat[f.Name]
		if f.FromRecord != nil {
			v = f.FromRecord(v)
		}
		values[f.Name] = v
	}
	if c.schema.Decode != nil {
		c.schema.Decode(record, values)
	}

	collections := make(map[string]*Collection, len(c.schema.Collections))
	for _, spec := range c.schema.Collections {
		items := recordItems(record[spec.Name])
		if len(items) == 0 {
			collections[spec.Name] = templateCollection(spec)
			continue
		}
		coll, err := NewCollection(items)
		if err != nil {
			return fmt.Errorf("populate %s: %w", spec.Name, err)
		}
		collections[spec.Name] = coll
	}

	image, _ := record[FieldImage].(string)

	c.values = values
	c.snapshot = maps.Clone(values)
	c.collections = collections
	c.image = image
	c.syncedImage = image
	c.preview = ""
	c.state = StateReady
	c.banner = ""
	c.errors = nil
	return nil
}

func recordItems(v any) []Item {
	switch raw := v.(type) {
	case []Item:
		return raw
	case []map[string]any:
		out := make([]Item, 0, len(raw))
		for _, m := range raw {
			out = append(out, Item(m))
		}
		return out
	case []any:
		out := make([]Item, 0, len(raw))
		for _, elem := range raw {
			if m, ok := elem.(map[string]any); ok {
				out = append(out, Item(m))
			}
		}
		return out
	}
	return nil
}

// FetchFailed records a failed fetch-for-edit. The form stays unusable.
func (c *Controller) FetchFailed(token Token, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.fetchToken {
		return ErrStale
	}
	c.state = StateFailed
	c.values = Values{}
	c.snapshot = Values{}
	c.collections = map[string]*Collection{}
	c.banner = BannerError
	return nil
}

func (c *Controller) editable() error {
	if c.closed {
		return ErrFormNotFound
	}
	switch c.state {
	case StateReady:
		return nil
	case StateSubmitting:
		return ErrBusy
	}
	return ErrNotReady
}

func (c *Controller) Set(field string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return err
	}
	if _, ok := c.schema.Field(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	c.values[field] = value
	return nil
}

func (c *Controller) collection(name string) (*Collection, error) {
	if err := c.editable(); err != nil {
		return nil, err
	}
	coll, ok := c.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	return coll, nil
}

func (c *Controller) UpdateItem(collection, id, key string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, err := c.collection(collection)
	if err != nil {
		return err
	}
	return coll.Update(id, key, value)
}

func (c *Controller) AddItem(collection string, item Item) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, err := c.collection(collection)
	if err != nil {
		return "", err
	}
	return coll.Add(item)
}

func (c *Controller) RemoveItem(collection, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	coll, err := c.collection(collection)
	if err != nil {
		return err
	}
	return coll.Remove(id)
}

// PreviewImage shows a local image while its upload is in flight.
func (c *Controller) PreviewImage(localURL string) (Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.editable(); err != nil {
		return 0, err
	}
	c.imageToken++
	c.preview = localURL
	return c.imageToken, nil
}

func (c *Controller) ImageUploaded(token Token, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.imageToken {
		return ErrStale
	}
	c.image = url
	c.preview = ""
	return nil
}

func (c *Controller) ImageFailed(token Token) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || token != c.imageToken {
		return ErrStale
	}
	c.preview = ""
	c.banner = BannerError
	return nil
}

func (c *Controller) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty()
}

func (c *Controller) dirty() bool {
	if c.image != c.syncedImage {
		return true
	}
	for _, coll := range c.collections {
		if coll.Updated() {
			return true
		}
	}
	for _, f := range c.schema.Fields {
		if !reflect.DeepEqual(c.values[f.Name], c.snapshot[f.Name]) {
			return true
		}
	}
	return false
}

func (c *Controller) Validate() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.schema.Validate(c.values)
}

func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmit()
}

func (c *Controller) canSubmit() bool {
	return !c.closed && c.state == StateReady && c.dirty() && len(c.schema.Validate(c.values)) == 0
}

// Submit sends the form to s. Only one submission may be in flight; on
// failure the form returns to ready with the error banner set.
func (c *Controller) Submit(ctx context.Context, s Submitter) error {
	c.mu.Lock()
	if err := c.editable(); err != nil {
		c.mu.Unlock()
		return err
	}
	if !c.dirty() {
		c.mu.Unlock()
		return ErrPristine
	}
	if errs := c.schema.Validate(c.values); len(errs) > 0 {
		c.errors = errs
		c.mu.Unlock()
		return &ValidationError{Fields: errs}
	}
	payload := c.payload()
	c.state = StateSubmitting
	c.errors = nil
	c.banner = ""
	c.mu.Unlock()

	err := s.Submit(ctx, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = StateReady
		c.banner = BannerError
		return fmt.Errorf("submit %s: %w", c.schema.Model, err)
	}
	c.state = StateDone
	c.snapshot = maps.Clone(c.values)
	c.syncedImage = c.image
	for _, coll := range c.collections {
		coll.markSynced()
	}
	return nil
}

func (c *Controller) payload() map[string]any {
	flat := make(map[string]any, len(c.values))
	for _, f := range c.schema.Fields {
		v := c.values[f.Name]
		if f.Kind == KindNumber {
			if n, ok := ToNumber(v); ok {
				v = n
			}
		}
		flat[f.Name] = v
	}

	wire := domain.ToWire(flat)
	for name, coll := range c.collections {
		items := coll.Items()
		out := make([]map[string]any, 0, len(items))
		for _, it := range items {
			out = append(out, map[string]any(it))
		}
		wire[name] = out
	}
	if c.image != "" {
		wire[FieldImage] = c.image
	}
	if c.schema.Encode != nil {
		c.schema.Encode(wire)
	}
	return wire
}

// Discard closes the form. Pending responses become stale.
func (c *Controller) Discard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.fetchToken++
	c.imageToken++
}

type View struct {
	ID          string            `json:"id"`
	Model       string            `json:"model"`
	Mode        Mode              `json:"mode"`
	RecordID    string            `json:"recordId,omitempty"`
	State       State             `json:"state"`
	Values      Values            `json:"values"`
	Collections map[string][]Item `json:"collections,omitempty"`
	ImageURL    string            `json:"imageURL,omitempty"`
	Uploading   bool              `json:"uploading"`
	Dirty       bool              `json:"dirty"`
	CanSubmit   bool              `json:"canSubmit"`
	Errors      map[string]string `json:"errors,omitempty"`
	Banner      string            `json:"banner,omitempty"`
	Fields      []Field           `json:"fields"`
}

// View snapshots the form for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		ID:        c.id,
		Model:     c.schema.Model,
		Mode:      c.mode,
		RecordID:  c.recordID,
		State:     c.state,
		Values:    maps.Clone(c.values),
		ImageURL:  c.image,
		Uploading: c.preview != "",
		Errors:    maps.Clone(c.errors),
		Banner:    c.banner,
		Fields:    c.schema.Fields,
	}
	if v.Values == nil {
		v.Values = Values{}
	}
	if c.preview != "" {
		v.ImageURL = c.preview
	}
	if c.state != StateLoading && c.state != StateFailed {
		v.Dirty = c.dirty()
		v.CanSubmit = c.canSubmit()
	}
	if len(c.collections) > 0 {
		v.Collections = make(map[string][]Item, len(c.collections))
		for name, coll := range c.collections {
			v.Collections[name] = coll.Items()
		}
	}
	return v
}
