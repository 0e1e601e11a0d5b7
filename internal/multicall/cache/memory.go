package cache

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
)

const defaultMemoryTTL = 10 * time.Minute

// Memory is an in-process cache backed by bigcache.
type Memory struct {
	store *bigcache.BigCache
}

// NewMemory creates an in-process cache whose entries expire after ttl.
func NewMemory(ttl time.Duration) (*Memory, error) {
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	cfg := bigcache.DefaultConfig(ttl)
	cfg.CleanWindow = ttl
	cfg.Verbose = false
	store, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Memory{store: store}, nil
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, err := m.store.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	return m.store.Set(key, value)
}

// Close implements Cache.
func (m *Memory) Close() error {
	return m.store.Close()
}
