package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizdeck-service/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptStore.
// Notes:
//   - Attempts stay in a local in-memory map; they are single-owner values
//     that never need to be shared across instances mid-flight.
//   - Redis marks attempt liveness with a TTL so stale attempts are visible
//     to ops tooling and could be reaped by a future janitor.
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.ID] = attempt
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(attempt.ID), attempt.QuizName, s.ttl).Err()
}

func (s *AttemptStore) Get(id string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	return attempt, ok
}

// Take removes and returns the attempt under the store lock; the liveness
// key is dropped once the attempt is claimed.
func (s *AttemptStore) Take(id string) (*app.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return nil, false
	}
	delete(s.attempts, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
	return attempt, true
}

func (s *AttemptStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

func (s *AttemptStore) key(id string) string {
	return "attempt:" + id
}
