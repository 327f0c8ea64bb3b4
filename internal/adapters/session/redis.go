package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/deck/pkg/metrics"
)

const pingTimeout = 5 * time.Second

// RedisStore keeps markers in Redis so several server replicas share them.
// Expiry is left to Redis key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, opts ...RedisOption) (*RedisStore, error) {
	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ropts)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultKeyPrefix, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

// Issue implements Store.
func (s *RedisStore) Issue(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, s.key(token), time.Now().UTC().Format(time.RFC3339), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("issue session: %w", err)
	}
	metrics.RecordSessionIssued()
	return token, nil
}

// Valid implements Store.
func (s *RedisStore) Valid(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	err := s.client.Get(ctx, s.key(token)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup session: %w", err)
	}
	return true, nil
}

// Revoke implements Store.
func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	n, err := s.client.Del(ctx, s.key(token)).Result()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n > 0 {
		metrics.RecordSessionsRevoked(int(n))
	}
	return nil
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
