package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisPrefix = "admin:list:"

// Redis shares list entries between admin-svc instances. An invalidation
// deletes the entry and bumps the key's generation; a fetch only stores its
// result if the generation it started with is still current.
type Redis struct {
	Client  *redis.Client
	TTL     time.Duration
	hub     *hub
	metrics *Metrics
	logger  *zap.SugaredLogger
}

func NewRedis(client *redis.Client, ttl time.Duration, metrics *Metrics, logger *zap.SugaredLogger) *Redis {
	return &Redis{
		Client:  client,
		TTL:     ttl,
		hub:     newHub(),
		metrics: metrics,
		logger:  logger,
	}
}

func (r *Redis) DataKey(key string) string { return redisPrefix + key }

func (r *Redis) GenKey(key string) string { return redisPrefix + key + ":gen" }

func (r *Redis) Get(ctx context.Context, key string, fetch Fetcher) (json.RawMessage, error) {
	data, err := r.Client.Get(ctx, r.DataKey(key)).Bytes()
	switch {
	case err == nil:
		r.metrics.hit(key)
		return json.RawMessage(data), nil
	case !errors.Is(err, redis.Nil):
		r.logger.Warnw("list cache read failed, fetching", "key", key, "error", err)
	}

	gen, err := r.generation(ctx, key)
	if err != nil {
		r.logger.Warnw("list cache generation read failed", "key", key, "error", err)
	}

	r.metrics.miss(key)
	fresh, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := r.store(ctx, key, gen, fresh)
	if err != nil {
		r.logger.Warnw("list cache write failed", "key", key, "error", err)
	}
	if stored {
		r.hub.publish(Event{Key: key, Kind: EventRefreshed, At: time.Now()})
	}
	return fresh, nil
}

func (r *Redis) generation(ctx context.Context, key string) (int64, error) {
	gen, err := r.Client.Get(ctx, r.GenKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *Redis) store(ctx context.Context, key string, gen int64, data json.RawMessage) (bool, error) {
	genKey := r.GenKey(key)
	stored := false
	err := r.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.DataKey(key), []byte(data), r.TTL)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, r.GenKey(key))
		pipe.Del(ctx, r.DataKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}

	r.metrics.invalidated(key)
	r.hub.publish(Event{Key: key, Kind: EventInvalidated, At: time.Now()})
	return nil
}

func (r *Redis) Subscribe(key string) (<-chan Event, func()) {
	return r.hub.subscribe(key)
}
