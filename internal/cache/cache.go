// Package cache provides the key/value stores behind service.CacheService.
package cache

import "context"

// Store is a best-effort cache. A backend failure behaves like a miss.
type Store interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{})
	Delete(ctx context.Context, key string)
}
