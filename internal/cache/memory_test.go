package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set get delete", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 0)
		c.Set(ctx, "k", 42)

		v, ok := c.Get(ctx, "k")
		assert.True(t, ok)
		assert.Equal(t, 42, v)

		c.Delete(ctx, "k")
		_, ok = c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("expired entries miss", func(t *testing.T) {
		c := NewInMemoryCache(time.Nanosecond, 0)
		c.Set(ctx, "k", "v")
		time.Sleep(time.Millisecond)
		_, ok := c.Get(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("sweep removes expired", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 0)
		c.Set(ctx, "a", 1)
		c.sweep(time.Now().Add(2 * time.Minute))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("stop without start", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, time.Minute)
		c.StopCleanup()
	})

	t.Run("start then stop", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 10*time.Millisecond)
		c.StartCleanup(ctx)
		c.StopCleanup()
		c.StopCleanup()
	})
}
