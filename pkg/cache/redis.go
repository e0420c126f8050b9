package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPort = "6379"

// RedisConfig holds connection settings for NewRedisCache.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	Prefix      string
}

type RedisOption func(*RedisConfig)

// WithRedisAddr sets the server address. A bare host gets port 6379.
func WithRedisAddr(addr string) RedisOption {
	return func(c *RedisConfig) {
		if addr == "" {
			return
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			addr = net.JoinHostPort(addr, defaultRedisPort)
		}
		c.Addr = addr
	}
}

func WithRedisAuth(password string, db int) RedisOption {
	return func(c *RedisConfig) {
		c.Password = password
		c.DB = db
	}
}

func WithRedisPoolSize(n int) RedisOption {
	return func(c *RedisConfig) {
		if n > 0 {
			c.PoolSize = n
		}
	}
}

// WithRedisPrefix namespaces every key, so one Redis can serve several
// deployments.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// RedisCache is a Store over Redis. Values are JSON encoded.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects and pings the server.
func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Addr:        "localhost:" + defaultRedisPort,
		PoolSize:    10,
		DialTimeout: 5 * time.Second,
		Prefix:      "fincast",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &RedisCache{client: client, prefix: cfg.Prefix}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, ok := value.([]byte)
	if !ok {
		var err error
		if data, err = json.Marshal(value); err != nil {
			return fmt.Errorf("redis marshal: %w", err)
		}
	}
	return c.client.Set(ctx, c.key(key), data, expiration).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return c.missOr(err)
	}
	return decodeInto(data, dest)
}

// getWithTTL reads the value and its remaining lifetime in one round trip.
// A key without expiry reports zero.
func (c *RedisCache) getWithTTL(ctx context.Context, key string, dest interface{}) (time.Duration, error) {
	k := c.key(key)
	pipe := c.client.Pipeline()
	get := pipe.Get(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, c.missOr(err)
	}
	data, err := get.Bytes()
	if err != nil {
		return 0, c.missOr(err)
	}
	if err := decodeInto(data, dest); err != nil {
		return 0, err
	}
	d := ttl.Val()
	if d < 0 {
		d = 0
	}
	return d, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	wrapped := make([]string, len(keys))
	for i, k := range keys {
		wrapped[i] = c.key(k)
	}
	return c.client.Unlink(ctx, wrapped...).Err()
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisCache) missOr(err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	return err
}

func decodeInto(data []byte, dest interface{}) error {
	if b, ok := dest.(*[]byte); ok {
		*b = data
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("redis unmarshal: %w", err)
	}
	return nil
}
