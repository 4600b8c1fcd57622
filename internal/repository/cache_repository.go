package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/worklane/hr-api/pkg/errors"
)

// CacheRepository provides helpers around Redis for cached attendance views
// and the registry of keys subject to invalidation.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	return &CacheRepository{client: client, logger: logger}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}

	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Register records a key in the named registry set so it participates in
// the next invalidation sweep.
func (r *CacheRepository) Register(ctx context.Context, registry, key string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.SAdd(ctx, registry, key).Err(); err != nil {
		return fmt.Errorf("redis register %s in %s: %w", key, registry, err)
	}
	return nil
}

// InvalidateRegistered deletes every key listed in the registry, then
// clears the registry itself.
func (r *CacheRepository) InvalidateRegistered(ctx context.Context, registry string) error {
	if r.client == nil {
		return nil
	}

	keys, err := r.client.SMembers(ctx, registry).Result()
	if err != nil {
		return fmt.Errorf("redis members of %s: %w", registry, err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis delete registered keys: %w", err)
		}
	}
	if err := r.client.Del(ctx, registry).Err(); err != nil {
		return fmt.Errorf("redis clear registry %s: %w", registry, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
