package userstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the default Store backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(k string) string {
	return "hodie:records:" + k
}

// Get returns the value for key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("userstore: get %s: %w", key, err)
	}
	return value, nil
}

// Set writes the value for key with no expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("userstore: set %s: %w", key, err)
	}
	return nil
}

// Delete removes the record for key.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("userstore: delete %s: %w", key, err)
	}
	return nil
}

// SetAndDelete pipelines the write and the delete in one transaction so the
// pair is applied atomically.
func (s *RedisStore) SetAndDelete(ctx context.Context, setKey, value, deleteKey string) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(setKey), value, 0)
	pipe.Del(ctx, s.key(deleteKey))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("userstore: set %s / delete %s: %w", setKey, deleteKey, err)
	}
	return nil
}
