package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"shelfsync/internal/util"
)

// TokenStore persists session tokens.
type TokenStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}

// MemoryTokenStore keeps sessions in-process with TTL.
type MemoryTokenStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	sess map[string]memorySession
	now  func() time.Time
}

type memorySession struct {
	userID    string
	expiresAt time.Time
}

// NewMemoryTokenStore builds an in-process session store.
func NewMemoryTokenStore(ttl time.Duration) *MemoryTokenStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryTokenStore{
		ttl:  ttl,
		sess: make(map[string]memorySession),
		now:  time.Now,
	}
}

// NewSession issues a token for the user.
func (s *MemoryTokenStore) NewSession(userID string) (string, error) {
	token := util.NewID()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess[token] = memorySession{userID: userID, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

// GetUserIDByToken resolves a token, dropping it when expired.
func (s *MemoryTokenStore) GetUserIDByToken(token string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sess[token]
	if !ok {
		return "", false, nil
	}
	if s.now().After(sess.expiresAt) {
		delete(s.sess, token)
		return "", false, nil
	}
	return sess.userID, true, nil
}

// DeleteSession removes a token mapping.
func (s *MemoryTokenStore) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sess, token)
	return nil
}

// RedisTokenStore keeps sessions in Redis with TTL.
type RedisTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTokenStore builds a Redis-backed session store.
func NewRedisTokenStore(addr, password string, ttl time.Duration) *RedisTokenStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisTokenStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// NewSession writes a token -> userID mapping with TTL.
func (s *RedisTokenStore) NewSession(userID string) (string, error) {
	token := util.NewID()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, sessionKey(token), userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// GetUserIDByToken resolves token to user ID.
func (s *RedisTokenStore) GetUserIDByToken(token string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// DeleteSession removes a token mapping.
func (s *RedisTokenStore) DeleteSession(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func sessionKey(token string) string {
	return "session:" + token
}
