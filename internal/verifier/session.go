package verifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "verifier_session:v1:"

// SessionStore persists opaque session tokens for authenticated verifiers.
type SessionStore interface {
	Put(ctx context.Context, token, username string, ttl time.Duration) error
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis with a TTL so they expire even if
// the verifier never logs out.
type RedisSessionStore struct {
	cache *redis.Client
}

// NewRedisSessionStore builds a Redis-backed session store.
func NewRedisSessionStore(cache *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{cache: cache}
}

func (s *RedisSessionStore) Put(ctx context.Context, token, username string, ttl time.Duration) error {
	return s.cache.Set(ctx, sessionPrefix+token, username, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (string, error) {
	username, err := s.cache.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	return username, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.cache.Del(ctx, sessionPrefix+token).Err()
}

type memorySession struct {
	username  string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

// NewMemorySessionStore builds an in-memory session store for tests and
// cache-less development.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]memorySession)}
}

func (s *memorySessionStore) Put(_ context.Context, token, username string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{username: username, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok || time.Now().After(sess.expiresAt) {
		return "", ErrUnauthorized
	}
	return sess.username, nil
}

func (s *memorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
