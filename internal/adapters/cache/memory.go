package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"eventplanner/internal/domain"
)

const memoryCleanupInterval = 10 * time.Minute

type memoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore returns a process-local WeatherCache. Expired entries are swept every
// ten minutes and never returned.
func NewMemoryStore() domain.WeatherCache {
	return &memoryStore{c: gocache.New(gocache.NoExpiration, memoryCleanupInterval)}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	s.c.Set(key, cp, ttl)
	return nil
}
