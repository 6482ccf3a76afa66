// Package redis provides a Redis-based implementation of the settings store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/ExpressedAi/Sidechain/pkg/storage"
)

// Config holds configuration for RedisStore.
type Config struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisStore implements storage.Store using a Redis server. Suitable when
// profiles are shared across processes.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, config *Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, &storage.StorageUnavailableError{Cause: err}
	}

	prefix := config.KeyPrefix
	if prefix == "" {
		prefix = "sidechain:setting:"
	}

	return &RedisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// GetSetting returns the payload stored under key.
func (s *RedisStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &storage.NotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return value, nil
}

// SaveSetting writes the payload under key without expiry.
func (s *RedisStore) SaveSetting(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// RemoveSetting deletes the key. Absent keys are not an error.
func (s *RedisStore) RemoveSetting(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix via SCAN.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis: scan %s: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
