package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](4, 30*time.Second, WithClock(clock.Now))
	c.Set("2025 Cierres", "A3")
	c.Set("2024 Cierres", "A9")

	clock.t = clock.t.Add(10 * time.Second)
	_, ok := c.Get("2025 Cierres")
	require.True(t, ok, "entry expired too early")

	clock.t = clock.t.Add(time.Minute)
	_, ok = c.Get("2025 Cierres")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Purge()
	assert.Equal(t, 0, c.Size())

	c.Set("c", 3)
	v, ok := c.Get("c")
	assert.True(t, ok, "cache usable after purge")
	assert.Equal(t, 3, v)
}
