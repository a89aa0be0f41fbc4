package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// BatchInvalidate invalidates multiple patterns in batch
func BatchInvalidate(ctx context.Context, helper *CacheHelper, patterns []string) error {
	var lastErr error
	for _, pattern := range patterns {
		if err := helper.InvalidatePattern(ctx, pattern); err != nil {
			lastErr = err
			slog.ErrorContext(ctx, "Failed to invalidate pattern in batch",
				"error", err,
				"pattern", pattern)
		}
	}
	return lastErr
}

// DegreeRecordKey is the cache key for a single degree read, scoped to the
// owning university so tenants never share entries.
func DegreeRecordKey(universityID, degreeID uint) string {
	return fmt.Sprintf("university:%d:id:%d", universityID, degreeID)
}

// DegreeFirstPageKey is the cache key for the unfiltered first list page.
func DegreeFirstPageKey(universityID uint, limit int) string {
	return fmt.Sprintf("university:%d:list:first:%d", universityID, limit)
}

// InvalidateDegreeCache drops the cached record and every cached listing of
// its university.
func InvalidateDegreeCache(ctx context.Context, cm *CacheManager, degreeID, universityID uint) {
	BatchInvalidate(ctx, cm.Degree, []string{
		DegreeRecordKey(universityID, degreeID),
		fmt.Sprintf("university:%d:list:*", universityID),
	})
}

// InvalidateUniversityCache invalidates university lookups and listings
func InvalidateUniversityCache(ctx context.Context, cm *CacheManager, universityID uint) {
	SafeDelete(ctx, cm.University, fmt.Sprintf("verified:%d", universityID))
	SafeInvalidatePattern(ctx, cm.University, "list:*")
}
