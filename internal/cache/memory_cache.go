package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	expiration int64 // Unix nanoseconds; zero = no expire
}

// MemoryCache is a mutex-guarded map with a background janitor. Good enough
// for one process; use RedisCache when multiple instances share state.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	quit    chan struct{}
}

// NewMemoryCache creates a memory cache with a 30s expiry janitor.
func NewMemoryCache[V any]() *MemoryCache[V] {
	mc := &MemoryCache[V]{
		entries: make(map[string]entry[V]),
		quit:    make(chan struct{}),
	}
	go mc.janitor(30 * time.Second)
	return mc
}

// Stop terminates the janitor goroutine.
func (mc *MemoryCache[V]) Stop() {
	select {
	case <-mc.quit:
	default:
		close(mc.quit)
	}
}

// Get returns the cached value or ErrCacheMiss. Expired entries are evicted
// on read.
func (mc *MemoryCache[V]) Get(_ context.Context, key string) (V, error) {
	var zero V
	now := time.Now().UnixNano()

	mc.mu.Lock()
	defer mc.mu.Unlock()

	e, ok := mc.entries[key]
	if !ok {
		return zero, ErrCacheMiss
	}
	if e.expiration > 0 && now > e.expiration {
		delete(mc.entries, key)
		return zero, ErrCacheMiss
	}
	return e.value, nil
}

// Set stores value under key with the given TTL.
func (mc *MemoryCache[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}
	mc.mu.Lock()
	mc.entries[key] = entry[V]{value: value, expiration: exp}
	mc.mu.Unlock()
	return nil
}

// Delete removes the key.
func (mc *MemoryCache[V]) Delete(_ context.Context, key string) error {
	mc.mu.Lock()
	delete(mc.entries, key)
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now().UnixNano()
			mc.mu.Lock()
			for k, e := range mc.entries {
				if e.expiration > 0 && now > e.expiration {
					delete(mc.entries, k)
				}
			}
			mc.mu.Unlock()
		case <-mc.quit:
			return
		}
	}
}
