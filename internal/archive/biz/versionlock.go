package biz

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// VersionLocker serializes version assignment per (fileName, category)
// key. Different keys never contend.
type VersionLocker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

const versionLockPrefix = "lock:file:version:"

// releaseScript deletes the lock only if we still own it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisVersionLocker takes a short SetNX lease per key so that version
// numbers stay unique across concurrent uploads, including across
// multiple server instances.
type RedisVersionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVersionLocker creates a redis-backed version locker
func NewRedisVersionLocker(client *redis.Client, ttl time.Duration) *RedisVersionLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisVersionLocker{client: client, ttl: ttl}
}

// Acquire blocks until the per-key lease is taken or the wait budget
// (one lease TTL) runs out, returning ErrVersionLockTimeout.
func (l *RedisVersionLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := versionLockPrefix + key
	token := uuid.New().String()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err()
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, ErrVersionLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
}

// LocalVersionLocker is an in-process fallback used when redis is not
// configured, and in tests.
type LocalVersionLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalVersionLocker creates an in-process version locker
func NewLocalVersionLocker() *LocalVersionLocker {
	return &LocalVersionLocker{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the per-key mutex
func (l *LocalVersionLocker) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
