package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionStore maps opaque player tokens to player ids. Tokens travel in
// the X-Session-Token header so a player can keep polling after a page
// reload without rejoining.
type SessionStore interface {
	Create(ctx context.Context, playerID uint) (string, error)
	PlayerID(ctx context.Context, token string) (uint, error)
	Delete(ctx context.Context, token string) error
}

type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (s *RedisSessionStore) Create(ctx context.Context, playerID uint) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, sessionKey(token), playerID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisSessionStore) PlayerID(ctx context.Context, token string) (uint, error) {
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return 0, ErrInvalidSession
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, ErrInvalidSession
	}
	return uint(id), nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKey(token)).Err()
}

// MemorySessionStore backs tests that do not want a Redis instance.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]uint
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]uint)}
}

func (s *MemorySessionStore) Create(_ context.Context, playerID uint) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = playerID
	s.mu.Unlock()
	return token, nil
}

func (s *MemorySessionStore) PlayerID(_ context.Context, token string) (uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return 0, ErrInvalidSession
	}
	return id, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
