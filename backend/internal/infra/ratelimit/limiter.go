package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AllowResult 描述一次固定窗口限流判断的结果。
type AllowResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
}

// Limiter 固定窗口请求限流，用于保护 AI 对话等开销较大的公开接口。
type Limiter interface {
	Allow(ctx context.Context, key string) (AllowResult, error)
}

// RedisLimiter 以 INCR + EXPIRE 实现固定窗口计数。
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter 构造 Redis 固定窗口限流器。
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (AllowResult, error) {
	if r == nil || r.client == nil || r.limit <= 0 {
		return AllowResult{Allowed: true, Remaining: -1}, nil
	}

	namespaced := r.prefix + ":" + key
	counter, err := r.client.Incr(ctx, namespaced).Result()
	if err != nil {
		return AllowResult{}, err
	}
	// 只在窗口首个请求时设置过期，后续请求不延长窗口。
	if counter == 1 {
		if err := r.client.Expire(ctx, namespaced, r.window).Err(); err != nil {
			return AllowResult{}, err
		}
	}

	count := int(counter)
	if count > r.limit {
		ttl, err := r.client.TTL(ctx, namespaced).Result()
		if err != nil {
			return AllowResult{}, err
		}
		if ttl < 0 {
			// 过期时间丢失时补设，避免 key 永久存在。
			_ = r.client.Expire(ctx, namespaced, r.window).Err()
			ttl = r.window
		}
		return AllowResult{Allowed: false, RetryAfter: ttl}, nil
	}
	return AllowResult{Allowed: true, Remaining: r.limit - count}, nil
}

// MemoryLimiter 进程内固定窗口限流器。
type MemoryLimiter struct {
	mu     sync.Mutex
	store  map[string]entry
	limit  int
	window time.Duration
	now    Clock
}

type entry struct {
	count   int
	expires time.Time
}

// NewMemoryLimiter 构建内存版限流器，limit<=0 表示不限流。
func NewMemoryLimiter(limit int, window time.Duration, now Clock) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{store: make(map[string]entry), limit: limit, window: window, now: now}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (AllowResult, error) {
	if m == nil || m.limit <= 0 {
		return AllowResult{Allowed: true, Remaining: -1}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ent, ok := m.store[key]
	if !ok || !now.Before(ent.expires) {
		m.sweep(now)
		m.store[key] = entry{count: 1, expires: now.Add(m.window)}
		return AllowResult{Allowed: true, Remaining: m.limit - 1}, nil
	}

	ent.count++
	m.store[key] = ent
	if ent.count > m.limit {
		return AllowResult{Allowed: false, RetryAfter: ent.expires.Sub(now)}, nil
	}
	return AllowResult{Allowed: true, Remaining: m.limit - ent.count}, nil
}

// sweep 在开启新窗口时顺带清理过期 key，调用方需持有锁。
func (m *MemoryLimiter) sweep(now time.Time) {
	for key, ent := range m.store {
		if !now.Before(ent.expires) {
			delete(m.store, key)
		}
	}
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
)
