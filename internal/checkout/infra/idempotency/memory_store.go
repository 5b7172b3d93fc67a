package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrKeyTaken = errors.New("idempotency key already used")

type entry struct {
	orderID int64
	expires time.Time
}

// MemoryStore is the single-process fallback when Redis is not configured.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	keys map[string]entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{ttl: ttl, now: time.Now, keys: make(map[string]entry)}
}

func (s *MemoryStore) Lookup(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.keys[key]
	if !ok {
		return 0, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.keys, key)
		return 0, false, nil
	}
	return e.orderID, true, nil
}

func (s *MemoryStore) Remember(_ context.Context, key string, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.keys[key]; ok && now.Before(e.expires) {
		return ErrKeyTaken
	}
	s.keys[key] = entry{orderID: orderID, expires: now.Add(s.ttl)}
	return nil
}
