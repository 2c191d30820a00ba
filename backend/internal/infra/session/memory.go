package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore 进程内会话存储：服务重启后所有会话失效，多实例之间不共享。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore 创建内存会话存储，ttl<=0 时使用 DefaultTTL。
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{sessions: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Create(_ context.Context, data Data) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	s.sessions[token] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryStore) Load(ctx context.Context, token string) (Data, bool, error) {
	if token == "" {
		return Data{}, false, nil
	}
	s.mu.RLock()
	entry, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Data{}, false, nil
	}
	if !s.now().Before(entry.expiresAt) {
		_ = s.Destroy(ctx, token)
		return Data{}, false, nil
	}
	return entry.data, true, nil
}

func (s *MemoryStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// sweep 清理过期会话，调用方需持有写锁。
func (s *MemoryStore) sweep() {
	now := s.now()
	for token, entry := range s.sessions {
		if !now.Before(entry.expiresAt) {
			delete(s.sessions, token)
		}
	}
}
