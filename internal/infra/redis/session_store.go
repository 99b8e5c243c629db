package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Seashocker17/quiz-arena/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionStore.
// Notes:
//   - Live Session objects stay in a local map: the state machine, its timers,
//     and the in-process broadcast fan-out are not serializable.
//   - Redis holds a liveness key per code with SETNX semantics, so two service
//     instances can never mint the same code.
//   - For true distribution you'd pair this with a pub/sub projector that fans
//     out snapshots across instances.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(code string, session *app.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.sessions[code]; taken {
		return false
	}
	claimed, err := s.client.SetNX(context.Background(), s.key(code), "1", s.ttl).Result()
	if err != nil {
		// Redis down: fall back to local uniqueness rather than refusing games.
		claimed = true
	}
	if !claimed {
		return false
	}
	s.sessions[code] = session
	return true
}

func (s *SessionStore) Get(code string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[code]
	return session, ok
}

func (s *SessionStore) Delete(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; !ok {
		return
	}
	delete(s.sessions, code)
	_ = s.client.Del(context.Background(), s.key(code)).Err()
}

func (s *SessionStore) key(code string) string {
	return "arena:session:" + code
}
