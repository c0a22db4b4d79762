package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/domain"
)

// AuthorCache is a read-through UserDirectory. Lookups go to an in-process
// map first, then Redis, then the chat platform. Deleted accounts are cached
// as tombstones so a sweep does not ask the platform for them again.
type AuthorCache struct {
	rdb     goredis.Cmdable
	users   domain.UserDirectory
	mem     *memoryCache
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

var _ domain.UserDirectory = (*AuthorCache)(nil)

func NewAuthorCache(rdb goredis.Cmdable, users domain.UserDirectory, ttl time.Duration, m *metrics.CacheMetrics) *AuthorCache {
	return &AuthorCache{
		rdb:     rdb,
		users:   users,
		mem:     newMemoryCache(ttl),
		ttl:     ttl,
		metrics: m,
	}
}

type cachedAuthor struct {
	User    *domain.UserInfo `json:"user,omitempty"`
	Missing bool             `json:"missing,omitempty"`
}

func (c *AuthorCache) FetchUser(ctx context.Context, userID string) (*domain.UserInfo, error) {
	if entry, ok := c.mem.get(userID); ok {
		c.metrics.Hits.Inc()
		return entry.result()
	}

	if entry, ok := c.getCached(ctx, userID); ok {
		c.metrics.Hits.Inc()
		c.mem.set(userID, entry)
		return entry.result()
	}

	c.metrics.Misses.Inc()
	user, err := c.users.FetchUser(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		entry := cachedAuthor{Missing: true}
		c.mem.set(userID, entry)
		c.writeCache(ctx, userID, entry)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("failed to fetch author: %w", err)
	}

	entry := cachedAuthor{User: user}
	c.mem.set(userID, entry)
	c.writeCache(ctx, userID, entry)
	return user, nil
}

// StartEvictionTimer periodically drops expired in-process entries. The
// returned function stops it.
func (c *AuthorCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := c.mem.evictExpired(); evicted > 0 {
					slog.Debug("Evicted expired author cache entries", "count", evicted)
				}
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }
}

func (e cachedAuthor) result() (*domain.UserInfo, error) {
	if e.Missing || e.User == nil {
		return nil, domain.ErrUserNotFound
	}
	u := *e.User
	return &u, nil
}

func (c *AuthorCache) getCached(ctx context.Context, userID string) (cachedAuthor, bool) {
	data, err := c.rdb.Get(ctx, authorCacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.metrics.Errors.WithLabelValues("get").Inc()
			slog.WarnContext(ctx, "Redis author cache GET failed", "user_id", userID, "error", err)
		}
		return cachedAuthor{}, false
	}

	var entry cachedAuthor
	if err := json.Unmarshal(data, &entry); err != nil {
		c.metrics.Errors.WithLabelValues("decode").Inc()
		slog.WarnContext(ctx, "Failed to unmarshal cached author", "user_id", userID, "error", err)
		return cachedAuthor{}, false
	}
	return entry, true
}

func (c *AuthorCache) writeCache(ctx context.Context, userID string, entry cachedAuthor) {
	encoded, err := json.Marshal(entry)
	if err != nil {
		c.metrics.Errors.WithLabelValues("encode").Inc()
		return
	}
	if err := c.rdb.Set(ctx, authorCacheKey(userID), encoded, c.ttl).Err(); err != nil {
		c.metrics.Errors.WithLabelValues("set").Inc()
		slog.WarnContext(ctx, "Failed to populate Redis author cache", "user_id", userID, "error", err)
	}
}

func authorCacheKey(userID string) string {
	return "author_cache:" + userID
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
	ttl     time.Duration
}

type memoryCacheEntry struct {
	author    cachedAuthor
	expiresAt time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{entries: make(map[string]memoryCacheEntry), ttl: ttl}
}

func (c *memoryCache) get(userID string) (cachedAuthor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		return cachedAuthor{}, false
	}
	return entry.author, true
}

func (c *memoryCache) set(userID string, author cachedAuthor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryCacheEntry{author: author, expiresAt: time.Now().Add(c.ttl)}
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
