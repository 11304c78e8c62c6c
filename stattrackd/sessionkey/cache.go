package sessionkey

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"
)

// DefaultTTL is how long a successfully resolved credential is served
// from memory before the verifier is consulted again.
const DefaultTTL = time.Hour

// Cache wraps a Resolver with a TTL keyed on the credential string.
// Failures are never cached: a transient verifier outage must not
// blacklist a credential that was valid moments earlier, and a valid
// entry already in cache keeps working through the outage.
type Cache struct {
	resolver Resolver
	clock    quartz.Clock
	ttl      time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type CacheOption func(*Cache)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(clock quartz.Clock) CacheOption {
	return func(c *Cache) {
		c.clock = clock
	}
}

func NewCache(resolver Resolver, opts ...CacheOption) *Cache {
	c := &Cache{
		resolver: resolver,
		clock:    quartz.NewReal(),
		ttl:      DefaultTTL,
		entries:  make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) Resolve(ctx context.Context, credential string) (uuid.UUID, error) {
	now := c.clock.Now()

	c.mu.RLock()
	entry, ok := c.entries[credential]
	c.mu.RUnlock()
	if ok && now.Before(entry.expiresAt) {
		return entry.userID, nil
	}

	// Two concurrent misses on the same credential both hit the
	// verifier and resolve identically; last write wins.
	userID, err := c.resolver.Resolve(ctx, credential)
	if err != nil {
		return uuid.Nil, err
	}

	c.mu.Lock()
	c.purgeLocked(now)
	c.entries[credential] = cacheEntry{
		userID:    userID,
		expiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()

	return userID, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) purgeLocked(now time.Time) {
	for credential, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, credential)
		}
	}
}
