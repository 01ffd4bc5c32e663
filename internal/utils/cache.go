package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Sentinel for a lost fill race
	"strconv"       // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// ProjectCacheKey is the cache key of a project load for its owner
func ProjectCacheKey(userID, projectID uint) string {
	return "project:user:" + strconv.FormatUint(uint64(userID), 10) + ":id:" + strconv.FormatUint(uint64(projectID), 10)
}

// ProjectVersionKey counts invalidations of a project. Loads only fill the cache
// when it did not move while they read the database.
func ProjectVersionKey(projectID uint) string {
	return "project:version:" + strconv.FormatUint(uint64(projectID), 10)
}

// versionTTL keeps a counter long after any load that read it has finished
const versionTTL = 24 * time.Hour

var errVersionMoved = errors.New("cache version moved")

// GetCache retrieves a value from Redis and unmarshals it into dest.
// A nil client behaves like an empty cache.
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	val, err := rdb.Get(ctx, key).Bytes() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err // Unreadable entry counts as a miss
	}
	return true, nil
}

// CacheVersion returns the current value of a version counter, zero when unset
func CacheVersion(ctx context.Context, rdb *redis.Client, versionKey string) (int64, error) {
	if rdb == nil {
		return 0, nil // Caching disabled
	}
	v, err := rdb.Get(ctx, versionKey).Int64()
	if err == redis.Nil {
		return 0, nil // Never invalidated
	}
	return v, err
}

// SetCacheIfVersion stores value only while versionKey still holds version.
// It reports whether the value was written; a concurrent invalidation makes it skip.
func SetCacheIfVersion(ctx context.Context, rdb *redis.Client, key, versionKey string, version int64, value any, ttl time.Duration) (bool, error) {
	if rdb == nil {
		return false, nil // Caching disabled
	}
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return false, err
	}
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err == redis.Nil {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return errVersionMoved // Invalidated since the caller read the version
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, ttl)
			return nil
		})
		return err
	}, versionKey)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errVersionMoved), errors.Is(err, redis.TxFailedErr):
		return false, nil // Lost the race to an invalidation
	default:
		return false, err
	}
}

// InvalidateProjects bumps the version of each project and drops its cached load for userID
func InvalidateProjects(ctx context.Context, rdb *redis.Client, userID uint, projectIDs ...uint) error {
	if rdb == nil || len(projectIDs) == 0 {
		return nil // Nothing to do
	}
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range projectIDs {
			versionKey := ProjectVersionKey(id)
			pipe.Incr(ctx, versionKey)                 // Fails any fill that read the old version
			pipe.Expire(ctx, versionKey, versionTTL)   // Counters do not pile up forever
			pipe.Del(ctx, ProjectCacheKey(userID, id)) // Drop the stale entry
		}
		return nil
	})
	return err
}
