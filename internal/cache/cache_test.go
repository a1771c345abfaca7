package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/mautops/deferral-gin/internal/cache"
	"github.com/mautops/deferral-gin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *cache.RedisClient) {
	mr := miniredis.RunT(t)
	client := cache.NewRedis(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type cachedView struct {
	Status  string `json:"status"`
	Percent int    `json:"percent"`
}

// TestViewCache 测试视图缓存读写与失效
func TestViewCache(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	require.NoError(t, client.Ping(ctx))

	vc := cache.NewViewCache(client, 30*time.Second)

	var out cachedView
	hit, err := vc.Get(ctx, "cl-1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, vc.Set(ctx, "cl-1", cachedView{Status: "check_review", Percent: 40}))
	hit, err = vc.Get(ctx, "cl-1", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 40, out.Percent)

	mr.FastForward(31 * time.Second)
	hit, err = vc.Get(ctx, "cl-1", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, vc.Set(ctx, "cl-1", cachedView{Status: "approved"}))
	require.NoError(t, vc.Invalidate(ctx, "cl-1"))
	hit, _ = vc.Get(ctx, "cl-1", &out)
	assert.False(t, hit)
}

// TestViewCache_Flush 测试清空全部视图缓存且不影响其他键
func TestViewCache_Flush(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	vc := cache.NewViewCache(client, time.Minute)

	require.NoError(t, vc.Flush(ctx))
	for _, id := range []string{"cl-1", "cl-2", "cl-3"} {
		require.NoError(t, vc.Set(ctx, id, cachedView{Status: "check_review"}))
	}
	require.NoError(t, mr.Set("lock:report:cl-1", "token"))

	require.NoError(t, vc.Flush(ctx))
	var out cachedView
	for _, id := range []string{"cl-1", "cl-2", "cl-3"} {
		hit, err := vc.Get(ctx, id, &out)
		require.NoError(t, err)
		assert.False(t, hit, id)
	}
	assert.True(t, mr.Exists("lock:report:cl-1"))
}

// TestRedisLocker 测试分布式锁的互斥与释放
func TestRedisLocker(t *testing.T) {
	mr, client := setupRedis(t)
	ctx := context.Background()
	locker := cache.NewRedisLocker(client)

	release, ok, err := locker.Acquire(ctx, "report:cl-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = locker.Acquire(ctx, "report:cl-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	_, ok, err = locker.Acquire(ctx, "report:cl-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// 过期后可重新获取
	mr.FastForward(2 * time.Minute)
	_, ok, err = locker.Acquire(ctx, "report:cl-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestRedisLocker_Unavailable 测试 Redis 不可用时返回错误
func TestRedisLocker_Unavailable(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	_, ok, err := cache.NewRedisLocker(client).Acquire(context.Background(), "k", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

// TestMemoryLocker 测试进程内锁
func TestMemoryLocker(t *testing.T) {
	locker := cache.NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := locker.Acquire(ctx, "cl-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = locker.Acquire(ctx, "cl-1", time.Minute)
	assert.False(t, ok)

	release()
	release()
	_, ok, _ = locker.Acquire(ctx, "cl-1", time.Minute)
	assert.True(t, ok)

	_, ok, _ = locker.Acquire(ctx, "short", time.Nanosecond)
	require.True(t, ok)
	time.Sleep(time.Millisecond)
	_, ok, _ = locker.Acquire(ctx, "short", time.Minute)
	assert.True(t, ok)
}
