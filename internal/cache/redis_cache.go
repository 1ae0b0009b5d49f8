package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds client settings for the Redis-backed cache.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	OpTimeout time.Duration // per-call timeout; defaulted if zero
}

// RedisCache stores values as JSON under their keys with a per-call timeout,
// so a slow Redis can never stall a settlement pass.
type RedisCache[V any] struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewRedisCache constructs and configures the client.
func NewRedisCache[V any](opts *RedisOptions) *RedisCache[V] {
	if opts.OpTimeout == 0 {
		opts.OpTimeout = 200 * time.Millisecond
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisCache[V]{
		client:    client,
		opTimeout: opts.OpTimeout,
	}
}

// Close cleans up underlying connections.
func (r *RedisCache[V]) Close() error {
	return r.client.Close()
}

// Get returns the cached value or ErrCacheMiss.
func (r *RedisCache[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrCacheMiss
	} else if err != nil {
		return zero, err
	}
	var val V
	if err := json.Unmarshal(data, &val); err != nil {
		return zero, err
	}
	return val, nil
}

// Set stores value as JSON under key with the given TTL.
func (r *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	return r.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes the key.
func (r *RedisCache[V]) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()
	return r.client.Del(ctx, key).Err()
}
