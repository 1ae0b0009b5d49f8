// Package cache provides a small TTL cache behind one interface with an
// in-memory implementation for single-node deployments and a Redis
// implementation for shared ones. The weather client uses it to keep
// settlement retries from hammering the upstream API.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache: key not found")

// Cache is the generic TTL cache contract.
type Cache[V any] interface {
	// Get returns the value or ErrCacheMiss.
	Get(ctx context.Context, key string) (V, error)
	// Set stores value under key with a TTL. Zero ttl = no expiration.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}
