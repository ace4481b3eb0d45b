package form

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// Item is one element of a nested collection. Its "id" key identifies it.
type Item map[string]any

func (i Item) ID() string {
	switch id := i["id"].(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

func cloneItem(i Item) Item {
	out := make(Item, len(i))
	for k, v := range i {
		if nested, ok := v.(map[string]any); ok {
			v = maps.Clone(nested)
		}
		out[k] = v
	}
	return out
}

// Collection is an ordered set of items addressed by id. Every edit builds a
// new index so items handed out earlier are never modified.
type Collection struct {
	order   []string
	items   map[string]Item
	updated bool
}

func NewCollection(items []Item) (*Collection, error) {
	c := &Collection{items: make(map[string]Item, len(items))}
	for _, it := range items {
		id := it.ID()
		if id == "" {
			return nil, fmt.Errorf("%w: item without id", ErrItemNotFound)
		}
		if _, dup := c.items[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		c.order = append(c.order, id)
		c.items[id] = cloneItem(it)
	}
	return c, nil
}

func (c *Collection) Items() []Item {
	out := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, cloneItem(c.items[id]))
	}
	return out
}

func (c *Collection) Len() int { return len(c.order) }

func (c *Collection) Updated() bool { return c.updated }

func (c *Collection) markSynced() { c.updated = false }

func (c *Collection) Update(id, key string, value any) error {
	current, ok := c.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if key == "id" {
		return fmt.Errorf("form: item id is immutable")
	}

	next := cloneItem(current)
	next[key] = value

	items := maps.Clone(c.items)
	items[id] = next
	c.items = items
	c.updated = true
	return nil
}

// Add appends item, assigning a fresh id when it has none.
func (c *Collection) Add(item Item) (string, error) {
	next := cloneItem(item)
	id := next.ID()
	if id == "" {
		id = uuid.NewString()
		next["id"] = id
	}
	if _, dup := c.items[id]; dup {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	items := maps.Clone(c.items)
	items[id] = next
	c.items = items
	c.order = append(append([]string{}, c.order...), id)
	c.updated = true
	return id, nil
}

func (c *Collection) Remove(id string) error {
	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	items := maps.Clone(c.items)
	delete(items, id)
	order := make([]string, 0, len(c.order)-1)
	for _, existing := range c.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	c.items = items
	c.order = order
	c.updated = true
	return nil
}
