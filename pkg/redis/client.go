// Package redis holds the shared Redis plumbing: order number sequences,
// distributed lock storage and idempotency records.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wholesaledesk/ordering-backend/pkg/config"
	"github.com/wholesaledesk/ordering-backend/pkg/logger"
)

const keyNamespace = "od"

var errNotInitialized = errors.New("redis client not initialized")

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
var compareAndDelete = redis.NewScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// compareAndExpire resets the TTL of KEYS[1] to ARGV[2] milliseconds only while it still holds ARGV[1].
var compareAndExpire = redis.NewScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// IdempotencyStore is what the idempotency middleware needs.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(context.Context, ...string) error
}

// Client wraps a standalone or cluster go-redis client.
type Client struct {
	rdb redis.UniversalClient
}

// New connects using cfg and verifies the server answers.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := universalOptions(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewUniversalClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %v: %w", opts.Addrs, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addrs", opts.Addrs), "redis connection established")
	}
	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an already configured client.
func NewFromClient(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

// universalOptions accepts a redis:// or rediss:// URL, or a comma separated
// address list; more than one address selects cluster mode.
func universalOptions(cfg config.RedisConfig) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	switch {
	case strings.TrimSpace(cfg.URL) != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts.Addrs = []string{parsed.Addr}
		opts.Username = parsed.Username
		if parsed.Password != "" {
			opts.Password = parsed.Password
		}
		if parsed.DB != 0 {
			opts.DB = parsed.DB
		}
		if parsed.TLSConfig != nil {
			opts.TLSConfig = parsed.TLSConfig.Clone()
			opts.TLSConfig.MinVersion = tls.VersionTLS12
		}
	case strings.TrimSpace(cfg.Address) != "":
		for _, addr := range strings.Split(cfg.Address, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				opts.Addrs = append(opts.Addrs, addr)
			}
		}
	}
	if len(opts.Addrs) == 0 {
		return nil, errors.New("redis url or address is required")
	}
	return opts, nil
}

func (c *Client) client() (redis.UniversalClient, error) {
	if c == nil || c.rdb == nil {
		return nil, errNotInitialized
	}
	return c.rdb, nil
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	rdb, err := c.client()
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, value, ttl).Err()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	rdb, err := c.client()
	if err != nil {
		return "", err
	}
	return rdb.Get(ctx, key).Result()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	rdb, err := c.client()
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	rdb, err := c.client()
	if err != nil {
		return err
	}
	return rdb.Del(ctx, keys...).Err()
}

// NextSequence atomically advances the named counter. INCR runs on the
// server, so values are unique across every API instance.
func (c *Client) NextSequence(ctx context.Context, name string) (int64, error) {
	rdb, err := c.client()
	if err != nil {
		return 0, err
	}
	return rdb.Incr(ctx, c.CounterKey(name)).Result()
}

// DeleteIfValue removes key only while it still holds value and reports
// whether it did.
func (c *Client) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	rdb, err := c.client()
	if err != nil {
		return false, err
	}
	removed, err := compareAndDelete.Run(ctx, rdb, []string{key}, value).Int64()
	if err != nil {
		return false, err
	}
	return removed == 1, nil
}

// ExpireIfValue resets the TTL of key only while it still holds value and
// reports whether it did.
func (c *Client) ExpireIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	rdb, err := c.client()
	if err != nil {
		return false, err
	}
	extended, err := compareAndExpire.Run(ctx, rdb, []string{key}, value, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return extended == 1, nil
}

func (c *Client) Ping(ctx context.Context) error {
	rdb, err := c.client()
	if err != nil {
		return err
	}
	return rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return key("idempotency", scope, id)
}

func (c *Client) CounterKey(name string) string {
	return key("counter", name)
}

func (c *Client) LockKey(name string) string {
	return key("lock", name)
}

// key joins non-blank parts under the service namespace.
func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
