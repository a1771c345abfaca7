package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker 单键互斥锁,ok 为 false 表示已被占用
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

const lockKeyPrefix = "deferral:lock:"

// 仅当值匹配时删除,避免释放他人持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SETNX 的分布式锁
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker 创建 Redis 锁
func NewRedisLocker(client *RedisClient) *RedisLocker {
	return &RedisLocker{client: client.Client}
}

// Acquire 获取锁
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		// 释放不受调用方 ctx 取消的影响
		_ = releaseScript.Run(context.Background(), l.client, []string{lockKeyPrefix + key}, token).Err()
	}
	return release, true, nil
}

// MemoryLocker 进程内锁,未配置 Redis 时使用
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewMemoryLocker 创建进程内锁
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time)}
}

// Acquire 获取锁,过期的持有记录视为已释放
func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return func() {}, false, nil
	}
	expires := now.Add(ttl)
	l.held[key] = expires

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held[key] == expires {
				delete(l.held, key)
			}
		})
	}
	return release, true, nil
}
