// internal/service/cache.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/pathway/internal/cache"
	"github.com/dangerclosesec/pathway/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CacheService provides caching functionality with type safety and error handling
type CacheService struct {
	store  cache.Store
	memory *cache.InMemoryCache
}

// CacheConfig holds configuration for the cache service. When Redis is set
// the cache is shared between replicas, otherwise it lives in process.
type CacheConfig struct {
	TTL         time.Duration
	CleanupFreq time.Duration
	Redis       redis.UniversalClient
	Prefix      string
}

// NewCacheService creates a new cache service
func NewCacheService(config CacheConfig) *CacheService {
	if config.Redis != nil {
		return &CacheService{store: cache.NewRedisCache(config.Redis, config.Prefix, config.TTL)}
	}

	mem := cache.NewInMemoryCache(config.TTL, config.CleanupFreq)
	mem.StartCleanup(context.Background())

	return &CacheService{store: mem, memory: mem}
}

// Set stores a value in the cache with type safety
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	s.store.Set(ctx, key, value)
	return nil
}

// Get retrieves a value from the cache with type conversion
func (s *CacheService) Get(ctx context.Context, key string, result interface{}) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	value, found := s.store.Get(ctx, key)
	if !found {
		return domain.ErrNotFound
	}

	switch v := value.(type) {
	case []byte:
		if err := json.Unmarshal(v, result); err != nil {
			return fmt.Errorf("unmarshaling cached value: %w", err)
		}
	default:
		if err := assignValue(value, result); err != nil {
			return fmt.Errorf("assigning cached value: %w", err)
		}
	}

	return nil
}

// GetOrSet retrieves a value from cache or sets it if not found
func (s *CacheService) GetOrSet(ctx context.Context, key string, result interface{}, fetchFunc func() (interface{}, error)) error {
	err := s.Get(ctx, key, result)
	if err == nil {
		return nil
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("getting from cache: %w", err)
	}

	value, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := s.Set(ctx, key, value); err != nil {
		return fmt.Errorf("storing in cache: %w", err)
	}

	if err := assignValue(value, result); err != nil {
		return fmt.Errorf("assigning fetched value: %w", err)
	}

	return nil
}

// Delete removes a value from the cache
func (s *CacheService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return domain.ErrInvalidInput
	}

	s.store.Delete(ctx, key)
	return nil
}

// Close stops the cleanup routine
func (s *CacheService) Close() {
	if s.memory != nil {
		s.memory.StopCleanup()
	}
}

// assignValue handles type conversion for different types
func assignValue(src interface{}, dst interface{}) error {
	if v, ok := dst.(*interface{}); ok {
		*v = src
		return nil
	}

	// Convert to JSON and back for complex types
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshaling value: %w", err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshaling value: %w", err)
	}

	return nil
}

func userCacheKey(id fmt.Stringer) string {
	return "user:" + id.String()
}
