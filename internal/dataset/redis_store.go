package dataset

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "dataset:"

// RedisStore keeps normalized tables in Redis as JSON, so dataset handles
// survive a process restart and can be shared across replicas. No TTL is
// set; handles live until deleted or evicted.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores a table under a fresh handle.
func (s *RedisStore) Put(ctx context.Context, t *Table) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding table: %w", err)
	}
	handle := uuid.New().String()
	if err := s.client.Set(ctx, redisKeyPrefix+handle, data, 0).Err(); err != nil {
		return "", fmt.Errorf("storing table: %w", err)
	}
	return handle, nil
}

// Get resolves a handle to its table, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, handle string) (*Table, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+handle).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}
	return &t, nil
}

// Delete removes a handle. Deleting an unknown handle is a no-op.
func (s *RedisStore) Delete(ctx context.Context, handle string) error {
	return s.client.Del(ctx, redisKeyPrefix+handle).Err()
}
