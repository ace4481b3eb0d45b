package form

import (
	"sync"
)

// Registry holds the forms currently open, each owned by one session.
type Registry struct {
	mu    sync.RWMutex
	forms map[string]entry
}

type entry struct {
	owner string
	ctrl  *Controller
}

func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]entry)}
}

func (r *Registry) Open(owner string, ctrl *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forms[ctrl.ID()] = entry{owner: owner, ctrl: ctrl}
}

// Get returns the form id owned by owner. Forms of other sessions are
// reported as not found.
func (r *Registry) Get(owner, id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.forms[id]
	if !ok || e.owner != owner {
		return nil, ErrFormNotFound
	}
	return e.ctrl, nil
}

func (r *Registry) Close(owner, id string) error {
	r.mu.Lock()
	e, ok := r.forms[id]
	if !ok || e.owner != owner {
		r.mu.Unlock()
		return ErrFormNotFound
	}
	delete(r.forms, id)
	r.mu.Unlock()

	e.ctrl.Discard()
	return nil
}

// CloseOwner discards every form of owner and returns how many were open.
func (r *Registry) CloseOwner(owner string) int {
	r.mu.Lock()
	var closed []*Controller
	for id, e := range r.forms {
		if e.owner == owner {
			closed = append(closed, e.ctrl)
			delete(r.forms, id)
		}
	}
	r.mu.Unlock()

	for _, c := range closed {
		c.Discard()
	}
	return len(closed)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.forms)
}
