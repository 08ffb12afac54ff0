package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the token in a single Redis string key with no TTL, for
// clients that run as several processes sharing one session.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
}

// NewRedisStore stores the token under "<prefix>:<key>". Empty prefix stores
// it under key alone; empty key means DefaultKey.
func NewRedisStore(rdb redis.UniversalClient, prefix, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisStore{rdb: rdb, key: key}
}

// Key returns the Redis key holding the token.
func (s *RedisStore) Key() string { return s.key }

func (s *RedisStore) Get(ctx context.Context) (string, error) {
	tok, err := s.rdb.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && tok == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("credential: redis get %s: %w", s.key, err)
	}
	return tok, nil
}

func (s *RedisStore) Set(ctx context.Context, token string) error {
	if err := s.rdb.Set(ctx, s.key, token, 0).Err(); err != nil {
		return fmt.Errorf("credential: redis set %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("credential: redis del %s: %w", s.key, err)
	}
	return nil
}
