package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"overcooked-admin/admin-svc/internal/domain"

	"go.uber.org/zap"
)

var ErrUnknownResource = errors.New("cache: unknown resource")

// Keys maps each resource to its single list cache key.
var Keys = map[string]string{
	domain.ResourceCategories: "allCategories",
	domain.ResourceMeals:      "allMeals",
	domain.ResourceUsers:      "allUsers",
	domain.ResourceProjects:   "allProjects",
}

func KeyFor(resource string) (string, error) {
	key, ok := Keys[resource]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownResource, resource)
	}
	return key, nil
}

// UsersPageKey is the key of one cursor page of the users list.
func UsersPageKey(after string) string {
	if after == "" {
		return Keys[domain.ResourceUsers]
	}
	return Keys[domain.ResourceUsers] + ":after=" + after
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.MutationEvent) error
}

type AuditRecorder interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

type Mutation struct {
	Resource string
	Action   string
	RecordID string
	Actor    string
}

// Coordinator turns successful mutations into cache invalidations. The
// event stream and the audit log are best effort: their failures are logged
// and never fail the mutation.
type Coordinator struct {
	Cache     Cache
	Publisher Publisher
	Audit     AuditRecorder
	Metrics   *Metrics
	Logger    *zap.SugaredLogger
	Origin    string
	now       func() time.Time
}

func NewCoordinator(c Cache, pub Publisher, audit AuditRecorder, metrics *Metrics, logger *zap.SugaredLogger, origin string) *Coordinator {
	return &Coordinator{
		Cache:     c,
		Publisher: pub,
		Audit:     audit,
		Metrics:   metrics,
		Logger:    logger,
		Origin:    origin,
		now:       time.Now,
	}
}

func (c *Coordinator) Mutated(ctx context.Context, m Mutation) error {
	key, err := KeyFor(m.Resource)
	if err != nil {
		return err
	}
	if err := c.Cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("mutation %s/%s: %w", m.Resource, m.Action, err)
	}
	c.Metrics.mutated(m.Resource, m.Action)

	now := c.now().UTC()
	if c.Publisher != nil {
		ev := domain.MutationEvent{
			Type:      domain.EventListMutated,
			Resource:  m.Resource,
			Action:    m.Action,
			RecordID:  m.RecordID,
			CacheKey:  key,
			Origin:    c.Origin,
			Timestamp: now,
		}
		if err := c.Publisher.Publish(ctx, ev); err != nil {
			c.Logger.Warnw("publish mutation event failed", "resource", m.Resource, "key", key, "error", err)
		}
	}
	if c.Audit != nil {
		entry := domain.AuditEntry{
			Resource:  m.Resource,
			Action:    m.Action,
			RecordID:  m.RecordID,
			Actor:     m.Actor,
			CreatedAt: now,
		}
		if err := c.Audit.Record(ctx, entry); err != nil {
			c.Logger.Warnw("audit record failed", "resource", m.Resource, "record_id", m.RecordID, "error", err)
		}
	}

	c.Logger.Infow("list invalidated", "resource", m.Resource, "action", m.Action, "key", key)
	return nil
}

// Apply invalidates the key named by an event from another instance. It
// reports whether anything was invalidated.
func (c *Coordinator) Apply(ctx context.Context, ev domain.MutationEvent) (bool, error) {
	if ev.Type != domain.EventListMutated || ev.Origin == c.Origin {
		return false, nil
	}

	key := ev.CacheKey
	if key == "" {
		var err error
		if key, err = KeyFor(ev.Resource); err != nil {
			return false, err
		}
	}
	if err := c.Cache.Invalidate(ctx, key); err != nil {
		return false, fmt.Errorf("remote mutation %s: %w", key, err)
	}
	return true, nil
}
