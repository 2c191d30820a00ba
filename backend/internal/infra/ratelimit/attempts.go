package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultMaxAttempts 锁定前允许的失败次数。
	DefaultMaxAttempts = 5
	// DefaultLockout 失败记录的滑动窗口长度。
	DefaultLockout = 300 * time.Second
)

// Reservation 是 Reserve 成功时占用的一次尝试。
type Reservation struct {
	// Count 为占用后窗口内的尝试次数。
	Count int
	id    string
}

// AttemptWindow 按 key（通常是客户端 IP）记录尝试，用滑动窗口判断是否放行。
//
// 调用方在校验密码之前先 Reserve：检查与占位在同一个临界区内完成，
// 并发请求不会同时越过阈值。校验失败时保留占位即记为一次失败，
// 无需计数的情况（参数缺失、存储故障）调用 Release 归还。
type AttemptWindow interface {
	// Reserve 清理窗口外的记录，未达阈值时追加一次尝试并返回 ok=true。
	Reserve(ctx context.Context, key string) (res Reservation, ok bool, err error)
	// Release 撤销 Reserve 追加的那一次尝试。
	Release(ctx context.Context, key string, res Reservation) error
	// Allow 只读判断 key 当前是否还能尝试。
	Allow(ctx context.Context, key string) (bool, error)
	// Clear 删除 key 的全部记录。
	Clear(ctx context.Context, key string) error
	Max() int
	Window() time.Duration
}

// Clock 便于测试时控制时间。
type Clock func() time.Time

type attempt struct {
	at time.Time
	id string
}

// MemoryAttemptWindow 进程内实现，重启即清空，多实例之间互不共享。
// 每个 key 的记录在访问时裁剪，外层 map 会随不同地址增长。
type MemoryAttemptWindow struct {
	mu       sync.Mutex
	attempts map[string][]attempt
	max      int
	window   time.Duration
	now      Clock
}

// NewMemoryAttemptWindow 构造内存版失败窗口，max/window 非正时使用默认值。
func NewMemoryAttemptWindow(max int, window time.Duration, now Clock) *MemoryAttemptWindow {
	max, window = normaliseAttempts(max, window)
	if now == nil {
		now = time.Now
	}
	return &MemoryAttemptWindow{
		attempts: make(map[string][]attempt),
		max:      max,
		window:   window,
		now:      now,
	}
}

func (m *MemoryAttemptWindow) Reserve(_ context.Context, key string) (Reservation, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	kept := m.prune(key, now)
	if len(kept) >= m.max {
		return Reservation{Count: len(kept)}, false, nil
	}
	res := Reservation{Count: len(kept) + 1, id: uuid.NewString()}
	m.attempts[key] = append(kept, attempt{at: now, id: res.id})
	return res, true, nil
}

func (m *MemoryAttemptWindow) Release(_ context.Context, key string, res Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.attempts[key]
	for i, a := range existing {
		if a.id == res.id {
			existing = append(existing[:i], existing[i+1:]...)
			break
		}
	}
	if len(existing) == 0 {
		delete(m.attempts, key)
		return nil
	}
	m.attempts[key] = existing
	return nil
}

func (m *MemoryAttemptWindow) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.prune(key, m.now())) < m.max, nil
}

func (m *MemoryAttemptWindow) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.attempts, key)
	return nil
}

func (m *MemoryAttemptWindow) Max() int { return m.max }

func (m *MemoryAttemptWindow) Window() time.Duration { return m.window }

// prune 调用方需持有锁。
func (m *MemoryAttemptWindow) prune(key string, now time.Time) []attempt {
	existing, ok := m.attempts[key]
	if !ok {
		return nil
	}
	kept := existing[:0]
	for _, a := range existing {
		if now.Sub(a.at) < m.window {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		delete(m.attempts, key)
		return nil
	}
	m.attempts[key] = kept
	return kept
}

// reserveScript 在 Redis 端原子完成：裁剪窗口、计数、未达阈值时写入本次尝试。
// KEYS[1]=key ARGV: cutoff, now(ms), max, member, window(ms)
var reserveScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
local n = redis.call('ZCARD', KEYS[1])
if n >= tonumber(ARGV[3]) then
  return {0, n}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1, n + 1}
`)

// RedisAttemptWindow 使用有序集合保存尝试时间戳，多实例共享同一份限制。
type RedisAttemptWindow struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
	now    Clock
}

// NewRedisAttemptWindow 构造 Redis 版失败窗口。
func NewRedisAttemptWindow(client *redis.Client, prefix string, max int, window time.Duration, now Clock) *RedisAttemptWindow {
	if prefix == "" {
		prefix = "login:attempts"
	}
	max, window = normaliseAttempts(max, window)
	if now == nil {
		now = time.Now
	}
	return &RedisAttemptWindow{client: client, prefix: prefix, max: max, window: window, now: now}
}

func (r *RedisAttemptWindow) key(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisAttemptWindow) Reserve(ctx context.Context, key string) (Reservation, bool, error) {
	now := r.now()
	member := uuid.NewString()
	// 分数 <= cutoff 的记录已超出窗口。
	cutoff := now.Add(-r.window).UnixMilli()

	values, err := reserveScript.Run(ctx, r.client, []string{r.key(key)},
		strconv.FormatInt(cutoff, 10),
		strconv.FormatInt(now.UnixMilli(), 10),
		r.max,
		member,
		r.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Reservation{}, false, err
	}
	if len(values) != 2 {
		return Reservation{}, false, fmt.Errorf("unexpected reserve reply %v", values)
	}
	if values[0] != 1 {
		return Reservation{Count: int(values[1])}, false, nil
	}
	return Reservation{Count: int(values[1]), id: member}, true, nil
}

func (r *RedisAttemptWindow) Release(ctx context.Context, key string, res Reservation) error {
	if res.id == "" {
		return nil
	}
	return r.client.ZRem(ctx, r.key(key), res.id).Err()
}

func (r *RedisAttemptWindow) Allow(ctx context.Context, key string) (bool, error) {
	namespaced := r.key(key)
	cutoff := r.now().Add(-r.window).UnixMilli()

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, namespaced, "-inf", strconv.FormatInt(cutoff, 10))
	count := pipe.ZCard(ctx, namespaced)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return int(count.Val()) < r.max, nil
}

func (r *RedisAttemptWindow) Clear(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisAttemptWindow) Max() int { return r.max }

func (r *RedisAttemptWindow) Window() time.Duration { return r.window }

func normaliseAttempts(max int, window time.Duration) (int, time.Duration) {
	if max <= 0 {
		max = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLockout
	}
	return max, window
}

var (
	_ AttemptWindow = (*MemoryAttemptWindow)(nil)
	_ AttemptWindow = (*RedisAttemptWindow)(nil)
)
