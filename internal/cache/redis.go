package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "assistant:"
	redisConnectWait   = 5 * time.Second
	redisScanBatch     = 100
)

// RedisConfig holds Redis connection configuration. Every key is stored under Prefix so
// several deployments can share one database.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	PoolSize int
	Prefix   string
}

// ParseRedisURL converts a redis:// or rediss:// URL into a RedisConfig.
func ParseRedisURL(rawURL string) (RedisConfig, error) {
	if rawURL == "" {
		return RedisConfig{}, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return RedisConfig{}, fmt.Errorf("parse redis url: %w", err)
	}
	return RedisConfig{Addr: opts.Addr, Password: opts.Password, DB: opts.DB, PoolSize: opts.PoolSize}, nil
}

// RedisClient stores cached answers in Redis.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient connects to Redis and fails unless the server answers a PING.
func NewRedisClient(cfg RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectWait)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}

	c := &RedisClient{rdb: rdb, prefix: cfg.Prefix}
	if c.prefix == "" {
		c.prefix = defaultRedisPrefix
	}
	return c, nil
}

func (c *RedisClient) key(k string) string { return c.prefix + k }

// Get returns ErrCacheMiss when key is absent or expired.
func (c *RedisClient) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key. A zero ttl keeps it until deleted.
func (c *RedisClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *RedisClient) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix unlinks every key starting with prefix, one SCAN page at a time.
func (c *RedisClient) DeleteByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, c.key(prefix)+"*", redisScanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s*: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Unlink(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis unlink %s*: %w", prefix, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks the connection.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection pool.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
