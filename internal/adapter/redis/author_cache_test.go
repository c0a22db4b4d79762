package redis

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/suggestbox/internal/domain"
)

func TestMemoryCache_Miss(t *testing.T) {
	cache := newMemoryCache(10 * time.Second)

	_, hit := cache.get("nobody")
	assert.False(t, hit)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cache := newMemoryCache(10 * time.Second)
		cache.set("42", cachedAuthor{User: &domain.UserInfo{ID: "42", Name: "maya"}})

		time.Sleep(9 * time.Second)
		entry, hit := cache.get("42")
		require.True(t, hit, "should still hit at 9 seconds")
		assert.Equal(t, "maya", entry.User.Name)

		time.Sleep(2 * time.Second)
		_, hit = cache.get("42")
		assert.False(t, hit, "should miss after TTL")
	})
}

func TestMemoryCache_EvictExpired(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cache := newMemoryCache(10 * time.Second)

		cache.set("1", cachedAuthor{Missing: true})
		time.Sleep(5 * time.Second)
		cache.set("2", cachedAuthor{Missing: true})
		time.Sleep(6 * time.Second)

		assert.Equal(t, 1, cache.evictExpired())
		_, hit := cache.get("2")
		assert.True(t, hit)
	})
}

func TestCachedAuthor_Result(t *testing.T) {
	user, err := cachedAuthor{User: &domain.UserInfo{ID: "42", Name: "maya"}}.result()
	require.NoError(t, err)
	assert.Equal(t, "maya", user.Name)

	_, err = cachedAuthor{Missing: true}.result()
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
