package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheGetSet(t *testing.T) {
	c := New(time.Minute)

	_, ok := c.Get("site:products")
	assert.False(t, ok)

	c.Set("site:products", []string{"a", "b"})
	v, ok := c.Get("site:products")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, v)
}

func TestCacheExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Set("k", 1)

	_, ok := c.Get("k")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "stale entry must not be served")
	assert.Equal(t, 0, c.Size(), "stale entry is deleted on read")
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := New(time.Minute)
	c.Set("alpha:products", 1)
	c.Set("alpha:categories", 2)
	c.Set("beta:products", 3)

	c.Invalidate("alpha:")

	_, ok := c.Get("alpha:products")
	assert.False(t, ok)
	_, ok = c.Get("alpha:categories")
	assert.False(t, ok)
	_, ok = c.Get("beta:products")
	assert.True(t, ok, "other tenants keep their entries")
}

func TestCacheCleanup(t *testing.T) {
	c := New(10 * time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("c", 3)

	c.Cleanup()
	assert.Equal(t, 1, c.Size())
	_, ok := c.Get("c")
	assert.True(t, ok)
}
