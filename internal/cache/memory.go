// internal/cache/memory.go
package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// InMemoryCache is a TTL map swept by a background goroutine.
type InMemoryCache struct {
	mu          sync.RWMutex
	items       map[string]entry
	ttl         time.Duration
	cleanupFreq time.Duration

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
	started  bool
}

func NewInMemoryCache(ttl, cleanupFreq time.Duration) *InMemoryCache {
	return &InMemoryCache{
		items:       make(map[string]entry),
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

func (c *InMemoryCache) Get(_ context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryCache) Set(_ context.Context, key string, value interface{}) {
	c.mu.Lock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *InMemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartCleanup sweeps expired entries every cleanupFreq until ctx is done or
// StopCleanup is called.
func (c *InMemoryCache) StartCleanup(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.cleanupFreq <= 0 {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cleanupFreq)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep(time.Now())
			case <-ctx.Done():
				return
			case <-c.stopChan:
				return
			}
		}
	}()
}

func (c *InMemoryCache) StopCleanup() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if started {
		<-c.done
	}
}

func (c *InMemoryCache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
