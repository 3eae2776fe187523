// Package cache provides the key/value cache used to memoise answers.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Backend selects a cache implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
	BackendNone   Backend = "none"
)

// Options configures New.
type Options struct {
	Backend    Backend
	RedisURL   string
	Prefix     string
	MaxEntries int
}

// New builds the client selected by opts.Backend. BackendNone returns a nil client.
func New(opts Options) (Client, error) {
	switch Backend(strings.ToLower(string(opts.Backend))) {
	case BackendMemory, "":
		return NewMemoryClient(opts.MaxEntries), nil
	case BackendRedis:
		cfg, err := ParseRedisURL(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		cfg.Prefix = opts.Prefix
		return NewRedisClient(cfg)
	case BackendNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Key joins key components with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
