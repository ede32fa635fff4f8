package utils

import (
	"context"
	"fmt"

	"student-roster-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidateCache will invalidate all cached keys for the given resource type
func InvalidateCache(ctx context.Context, rdb *redis.Client, resourceType string) error {
	pattern := fmt.Sprintf("%s:*", resourceType)
	iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error during SCAN iteration: %w", err)
	}

	return nil
}

// InvalidateCacheAsync invalidates the cache for a given resource type asynchronously
func InvalidateCacheAsync(rdb *redis.Client, resourceType string) {
	if rdb == nil {
		return
	}
	go func() {
		if err := InvalidateCache(context.Background(), rdb, resourceType); err != nil {
			config.Logger.Warn("Cache invalidation failed",
				zap.String("resource_type", resourceType),
				zap.Error(err),
			)
		}
	}()
}
