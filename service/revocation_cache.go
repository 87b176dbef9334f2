package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationCache is a time-bounded set of access-token identifiers that must
// be rejected before their natural expiry (logout). Entries self-expire: an
// entry is pointless once the token it blocks would have expired anyway, so
// callers pass the token's remaining lifetime as the TTL and the cache stays
// bounded by one entry per active login per access-token window.
type RevocationCache interface {
	Add(ctx context.Context, tokenID string, ttl time.Duration) error
	Contains(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationCache is the single-instance backend: a mutex-guarded map
// of token ID to eviction deadline. Expired entries are dropped lazily on
// lookup and swept periodically by a janitor goroutine. A process restart
// loses the set, which only reopens a window no longer than one access-token
// lifetime for just-logged-out tokens; at this scale that is an accepted
// tradeoff.
type MemoryRevocationCache struct {
	mu       sync.RWMutex
	entries  map[string]time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryRevocationCache creates the cache and starts its janitor, which
// sweeps expired entries at the given interval.
func NewMemoryRevocationCache(sweepInterval time.Duration) *MemoryRevocationCache {
	c := &MemoryRevocationCache{
		entries: make(map[string]time.Time),
		stop:    make(chan struct{}),
	}
	go c.janitor(sweepInterval)
	return c
}

func (c *MemoryRevocationCache) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its natural expiry; nothing to block.
		return nil
	}
	c.mu.Lock()
	c.entries[tokenID] = time.Now().Add(ttl)
	c.mu.Unlock()
	return nil
}

func (c *MemoryRevocationCache) Contains(ctx context.Context, tokenID string) (bool, error) {
	c.mu.RLock()
	deadline, ok := c.entries[tokenID]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		c.mu.Lock()
		delete(c.entries, tokenID)
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Stop terminates the janitor. Safe to call more than once.
func (c *MemoryRevocationCache) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *MemoryRevocationCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for id, deadline := range c.entries {
				if now.After(deadline) {
					delete(c.entries, id)
				}
			}
			c.mu.Unlock()
		}
	}
}

// RedisRevocationCache is the shared backend for multi-instance deployments.
// Eviction is delegated to Redis key expiry.
type RedisRevocationCache struct {
	client *redis.Client
}

func NewRedisRevocationCache(client *redis.Client) *RedisRevocationCache {
	return &RedisRevocationCache{client: client}
}

func revocationKey(tokenID string) string {
	return "revoked_access_token:" + tokenID
}

func (c *RedisRevocationCache) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, revocationKey(tokenID), 1, ttl).Err()
}

func (c *RedisRevocationCache) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
