package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image_editor/internal/testutil"
)

func TestCacheHelpersWithoutRedis(t *testing.T) {
	ctx := context.Background()
	var dest map[string]any
	found, err := GetCache(ctx, nil, ProjectCacheKey(1, 2), &dest)
	assert.NoError(t, err)
	assert.False(t, found)

	version, err := CacheVersion(ctx, nil, ProjectVersionKey(2))
	assert.NoError(t, err)
	assert.Zero(t, version)

	written, err := SetCacheIfVersion(ctx, nil, "k", "v", 0, 1, time.Minute)
	assert.NoError(t, err)
	assert.False(t, written)
	assert.NoError(t, InvalidateProjects(ctx, nil, 1, 2))
	assert.Equal(t, "project:user:1:id:2", ProjectCacheKey(1, 2))
}

func TestSetCacheIfVersion(t *testing.T) {
	rdb, mr := testutil.OpenTestRedis(t)
	ctx := context.Background()
	key, versionKey := ProjectCacheKey(1, 2), ProjectVersionKey(2)

	version, err := CacheVersion(ctx, rdb, versionKey)
	require.NoError(t, err)
	assert.Zero(t, version)

	written, err := SetCacheIfVersion(ctx, rdb, key, versionKey, version, map[string]string{"image": "v1"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, written)

	var got map[string]string
	found, err := GetCache(ctx, rdb, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v1", got["image"])
	assert.Equal(t, time.Minute, mr.TTL(key))

	// An invalidation between the version read and the write drops the fill.
	require.NoError(t, InvalidateProjects(ctx, rdb, 1, 2))
	assert.False(t, mr.Exists(key))
	written, err = SetCacheIfVersion(ctx, rdb, key, versionKey, version, map[string]string{"image": "stale"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, written)
	assert.False(t, mr.Exists(key))

	version, err = CacheVersion(ctx, rdb, versionKey)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Positive(t, mr.TTL(versionKey))
}

func TestInvalidateProjectsOnlyTouchesOwnerKeys(t *testing.T) {
	rdb, mr := testutil.OpenTestRedis(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(ProjectCacheKey(1, 5), "{}"))
	require.NoError(t, mr.Set(ProjectCacheKey(1, 6), "{}"))
	require.NoError(t, mr.Set(ProjectCacheKey(2, 7), "{}"))

	require.NoError(t, InvalidateProjects(ctx, rdb, 1, 5, 6))
	assert.False(t, mr.Exists(ProjectCacheKey(1, 5)))
	assert.False(t, mr.Exists(ProjectCacheKey(1, 6)))
	assert.True(t, mr.Exists(ProjectCacheKey(2, 7)))
}
