package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/diploma-service/internal/cache"
	"github.com/SAP-F-2025/diploma-service/internal/models"
	"github.com/SAP-F-2025/diploma-service/internal/repositories"
)

// newCachedDegreeRepo wires a repository with a live cache but no database.
// Reads that are served from the cache never dereference the nil connection,
// so these tests double as proof the cache is actually consulted.
func newCachedDegreeRepo(t *testing.T) (*DegreePostgreSQL, *cache.CacheManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := cache.NewCacheManager(client)
	repo := &DegreePostgreSQL{
		helpers:      NewSharedHelpers(nil),
		cacheManager: cm,
	}
	return repo, cm
}

func cachedDegreeFixture() *models.Degree {
	return &models.Degree{
		ID:           7,
		UniversityID: 1,
		StudentEmail: "jane@foo.edu",
		DegreeType:   "Bachelor",
		Major:        "Computer Science",
		Status:       models.DegreeSubmitted,
	}
}

func TestDegreePostgreSQL_GetByIDScoped_ServedFromCache(t *testing.T) {
	repo, cm := newCachedDegreeRepo(t)
	ctx := context.Background()

	want := cachedDegreeFixture()
	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeRecordKey(1, 7), want, time.Minute))

	got, err := repo.GetByIDScoped(ctx, nil, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Major, got.Major)
	assert.Equal(t, models.DegreeSubmitted, got.Status)
}

func TestDegreePostgreSQL_GetByIDScoped_CacheKeyIsTenantScoped(t *testing.T) {
	repo, cm := newCachedDegreeRepo(t)
	ctx := context.Background()

	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeRecordKey(1, 7), cachedDegreeFixture(), time.Minute))

	// The same degree id under another university must not hit the entry
	// cached for university 1. With no database behind the repository the
	// fetch panics, which is exactly what a shared key would hide.
	assert.Panics(t, func() {
		repo.GetByIDScoped(ctx, nil, 7, 2)
	})
}

func TestDegreePostgreSQL_List_FirstPageServedFromCache(t *testing.T) {
	repo, cm := newCachedDegreeRepo(t)
	ctx := context.Background()

	page := degreePage{
		Degrees: []*models.Degree{cachedDegreeFixture()},
		Total:   41,
	}
	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeFirstPageKey(1, 20), page, time.Minute))

	degrees, total, err := repo.List(ctx, nil, 1, repositories.DegreeFilters{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(41), total)
	require.Len(t, degrees, 1)
	assert.Equal(t, uint(7), degrees[0].ID)
}

func TestDegreePostgreSQL_InvalidationClearsReadKeys(t *testing.T) {
	repo, cm := newCachedDegreeRepo(t)
	ctx := context.Background()

	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeRecordKey(1, 7), cachedDegreeFixture(), time.Minute))
	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeFirstPageKey(1, 20), degreePage{Total: 1}, time.Minute))
	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeRecordKey(2, 9), cachedDegreeFixture(), time.Minute))

	cache.InvalidateDegreeCache(ctx, cm, 7, 1)

	for key, want := range map[string]bool{
		cache.DegreeRecordKey(1, 7):     false,
		cache.DegreeFirstPageKey(1, 20): false,
		cache.DegreeRecordKey(2, 9):     true,
	} {
		exists, err := cm.Degree.Exists(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, exists, key)
	}

	// A university-wide write uses the broader pattern.
	require.NoError(t, cm.Degree.Set(ctx, cache.DegreeRecordKey(1, 7), cachedDegreeFixture(), time.Minute))
	repo.invalidateUniversity(ctx, 1)

	exists, err := cm.Degree.Exists(ctx, cache.DegreeRecordKey(1, 7))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = cm.Degree.Exists(ctx, cache.DegreeRecordKey(2, 9))
	require.NoError(t, err)
	assert.True(t, exists, "other universities keep their entries")
}

func TestDegreeFilters_IsUnfilteredFirstPage(t *testing.T) {
	assert.True(t, repositories.DegreeFilters{Limit: 20}.IsUnfilteredFirstPage())

	status := models.DegreeDraft
	assert.False(t, repositories.DegreeFilters{Limit: 20, Status: &status}.IsUnfilteredFirstPage())
	assert.False(t, repositories.DegreeFilters{Limit: 20, Offset: 20}.IsUnfilteredFirstPage())
	assert.False(t, repositories.DegreeFilters{Limit: 20, SortBy: "student_email"}.IsUnfilteredFirstPage())
}
