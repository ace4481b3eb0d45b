package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client, time.Minute, NewMetrics(nil), zap.NewNop().Sugar())
}

func TestRedisGetStoresWithTTL(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)
	f := newCountingFetcher(`[{"id":"c1"}]`)

	got, err := c.Get(ctx, "allCategories", f.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, string(got))

	stored, err := mr.Get("admin:list:allCategories")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1"}]`, stored)
	assert.Equal(t, time.Minute, mr.TTL("admin:list:allCategories"))

	_, err = c.Get(ctx, "allCategories", f.fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestRedisInvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)
	f := newCountingFetcher(`["a","b"]`)

	_, err := c.Get(ctx, "allMeals", f.fetch)
	require.NoError(t, err)

	f.data.Store(`["b"]`)
	require.NoError(t, c.Invalidate(ctx, "allMeals"))
	assert.False(t, mr.Exists("admin:list:allMeals"))

	got, err := c.Get(ctx, "allMeals", f.fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `["b"]`, string(got))
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestRedisDropsFetchStraddlingInvalidation(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)

	fetch := func(ctx context.Context) (json.RawMessage, error) {
		require.NoError(t, c.Invalidate(ctx, "allMeals"))
		return json.RawMessage(`["pre-mutation"]`), nil
	}

	got, err := c.Get(ctx, "allMeals", fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `["pre-mutation"]`, string(got))
	assert.False(t, mr.Exists("admin:list:allMeals"))
}

func TestRedisFallsBackToFetchWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	mr, c := setupRedis(t)
	mr.Close()

	got, err := c.Get(ctx, "allProjects", newCountingFetcher(`[]`).fetch)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
	assert.Error(t, c.Invalidate(ctx, "allProjects"))
}
