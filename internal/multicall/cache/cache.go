// Package cache stores raw aggregate call responses for reads pinned to a
// block number. Such responses never change, so entries are safe to reuse.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte-oriented key/value store.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Driver     string      `json:"driver"`
	TTLSeconds int         `json:"ttl_seconds"`
	Redis      RedisConfig `json:"redis"`
}

// New builds the backend named by cfg.Driver. An empty driver or "none"
// returns a nil Cache, which disables caching.
func New(ctx context.Context, cfg Config) (Cache, error) {
	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "memory":
		m, err := NewMemory(ttl)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "redis":
		cfg.Redis.TTL = ttl
		r, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
