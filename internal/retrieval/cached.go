package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/healthdesk/assistant/internal/cache"
	"github.com/healthdesk/assistant/internal/observability"
)

// CachedAnswererConfig configures the answer cache.
type CachedAnswererConfig struct {
	// TTL is how long a resolution stays cached. Zero keeps it until invalidated.
	TTL time.Duration
	// KeyPrefix namespaces cache keys. Invalidate drops everything under it.
	KeyPrefix string
}

// Fingerprinter is implemented by answerers whose output depends on loaded data. Cached
// answers are keyed by the fingerprint so a changed knowledge base or threshold never
// serves entries written by an older one.
type Fingerprinter interface {
	Fingerprint() string
}

const fingerprintKeyLen = 12

// DefaultCachedAnswererConfig returns default cache configuration.
func DefaultCachedAnswererConfig() CachedAnswererConfig {
	return CachedAnswererConfig{
		TTL:       15 * time.Minute,
		KeyPrefix: "answer:",
	}
}

// CachedAnswerer memoises resolutions of another Answerer. Cache failures are logged and
// bypassed; they never change the answer.
type CachedAnswerer struct {
	next    Answerer
	client  cache.Client
	logger  *observability.Logger
	metrics *observability.Metrics
	config  CachedAnswererConfig
	scope   string
}

// NewCachedAnswerer wraps next with a cache. A nil client disables caching.
func NewCachedAnswerer(next Answerer, client cache.Client, logger *observability.Logger, metrics *observability.Metrics, config CachedAnswererConfig) *CachedAnswerer {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "answer:"
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	scope := config.KeyPrefix
	if fp, ok := next.(Fingerprinter); ok {
		if id := fp.Fingerprint(); id != "" {
			scope += id[:min(fingerprintKeyLen, len(id))] + ":"
		}
	}

	return &CachedAnswerer{
		next:    next,
		client:  client,
		logger:  logger,
		metrics: metrics,
		config:  config,
		scope:   scope,
	}
}

// CacheKey returns the cache key for a raw query. Queries that differ only in letter case
// share a key; punctuation is kept because navigation rules read it. When the wrapped
// answerer is a Fingerprinter its fingerprint follows the prefix.
func (c *CachedAnswerer) CacheKey(raw string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(raw)))
	return c.scope + hex.EncodeToString(hash[:16])
}

// Resolve returns a cached resolution when available, otherwise resolves and caches.
func (c *CachedAnswerer) Resolve(ctx context.Context, raw string) Resolution {
	if c.client == nil || strings.TrimSpace(raw) == "" {
		return c.next.Resolve(ctx, raw)
	}

	key := c.CacheKey(raw)
	if res, ok := c.get(ctx, key); ok {
		c.metrics.RecordCacheHit(ctx)
		return res
	}

	res := c.next.Resolve(ctx, raw)
	c.set(ctx, key, res)
	return res
}

// Invalidate drops every cached resolution under the key prefix, including those written
// under other fingerprints.
func (c *CachedAnswerer) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	c.logger.Info().Str("prefix", c.config.KeyPrefix).Msg("Invalidating answer cache")
	return c.client.DeleteByPrefix(ctx, c.config.KeyPrefix)
}

func (c *CachedAnswerer) get(ctx context.Context, key string) (Resolution, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Cache get error")
		}
		return Resolution{}, false
	}

	var res Resolution
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached resolution")
		return Resolution{}, false
	}
	if res.Response.Anchors == nil {
		res.Response.Anchors = []string{}
	}

	c.logger.Debug().Str("key", key).Msg("Cache hit")
	return res, true
}

func (c *CachedAnswerer) set(ctx context.Context, key string, res Resolution) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to marshal resolution")
		return
	}

	if err := c.client.Set(ctx, key, data, c.config.TTL); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache resolution")
		return
	}

	c.logger.Debug().Str("key", key).Dur("ttl", c.config.TTL).Msg("Cached resolution")
}
