package memory

import (
	"context"
	"sync"

	"skillswap/internal/domain"
)

// ProfileCache is a process-local key/value map. It is the default cache
// driver and the one used in tests.
type ProfileCache struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewProfileCache() *ProfileCache {
	return &ProfileCache{data: make(map[string]string)}
}

var _ domain.ProfileCache = (*ProfileCache)(nil)

func (c *ProfileCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *ProfileCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *ProfileCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
