package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedDegree struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

func newTestHelper(t *testing.T, prefix string) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheHelper(client, prefix), mr
}

func TestCacheHelper_SetGet(t *testing.T) {
	helper, _ := newTestHelper(t, "degree:")
	ctx := context.Background()

	want := cachedDegree{ID: 7, Status: "draft"}
	require.NoError(t, helper.Set(ctx, "id:7", want, time.Minute))

	var got cachedDegree
	require.NoError(t, helper.Get(ctx, "id:7", &got))
	assert.Equal(t, want, got)
}

func TestCacheHelper_GetMiss(t *testing.T) {
	helper, _ := newTestHelper(t, "degree:")

	var got cachedDegree
	err := helper.Get(context.Background(), "id:404", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestCacheHelper_Delete(t *testing.T) {
	helper, _ := newTestHelper(t, "degree:")
	ctx := context.Background()

	require.NoError(t, helper.SetString(ctx, "id:1", "a", time.Minute))
	require.NoError(t, helper.SetString(ctx, "id:2", "b", time.Minute))
	require.NoError(t, helper.Delete(ctx, "id:1", "id:2"))

	exists, err := helper.Exists(ctx, "id:1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCacheHelper_InvalidatePattern(t *testing.T) {
	helper, _ := newTestHelper(t, "degree:")
	ctx := context.Background()

	require.NoError(t, helper.SetString(ctx, "university:1:list:a", "x", time.Minute))
	require.NoError(t, helper.SetString(ctx, "university:1:list:b", "y", time.Minute))
	require.NoError(t, helper.SetString(ctx, "university:2:list:a", "z", time.Minute))

	require.NoError(t, helper.InvalidatePattern(ctx, "university:1:*"))

	for key, want := range map[string]bool{
		"university:1:list:a": false,
		"university:1:list:b": false,
		"university:2:list:a": true,
	} {
		exists, err := helper.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, exists, key)
	}
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	helper, _ := newTestHelper(t, "degree:")
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedDegree{ID: 7, Status: "submitted"}, nil
	}

	var got cachedDegree
	require.NoError(t, helper.CacheOrExecute(ctx, "id:7", &got, time.Minute, fetch))
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, 1, calls)

	// The async write-back lands shortly after the miss.
	require.Eventually(t, func() bool {
		exists, err := helper.Exists(ctx, "id:7")
		return err == nil && exists
	}, time.Second, 10*time.Millisecond)

	var again cachedDegree
	require.NoError(t, helper.CacheOrExecute(ctx, "id:7", &again, time.Minute, fetch))
	assert.Equal(t, got, again)
	assert.Equal(t, 1, calls, "cache hit must not call fetch")
}

func TestCacheHelper_NilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "degree:")
	ctx := context.Background()

	assert.NoError(t, helper.Set(ctx, "id:1", cachedDegree{ID: 1}, time.Minute))
	assert.NoError(t, helper.Delete(ctx, "id:1"))
	assert.NoError(t, helper.InvalidatePattern(ctx, "*"))

	var got cachedDegree
	assert.ErrorIs(t, helper.Get(ctx, "id:1", &got), ErrCacheNotAvailable)

	// The fetch path still works without a backing cache.
	err := helper.CacheOrExecute(ctx, "id:1", &got, time.Minute, func() (interface{}, error) {
		return cachedDegree{ID: 1, Status: "draft"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), got.ID)
}

func TestCacheManager_NilClient(t *testing.T) {
	cm := NewCacheManager(nil)
	assert.ErrorIs(t, cm.HealthCheck(context.Background()), ErrCacheNotAvailable)
	assert.NoError(t, cm.ClearAll(context.Background()))
}

func TestCacheManager_HealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	assert.NoError(t, cm.HealthCheck(context.Background()))
}
