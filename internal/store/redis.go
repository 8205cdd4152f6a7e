package store

import (
	"context"
	"crypto/tls"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "toolbridge:pref:"

// Redis is a Store backed by a Redis deployment.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

var _ Store = (*Redis)(nil)

// NewRedis connects to the given Redis URL and verifies the connection.
func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	opts, err := parseRedisURL(addr)
	if err != nil {
		return nil, err
	}

	c := redis.NewUniversalClient(opts)

	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()

		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &Redis{client: c, prefix: redisKeyPrefix}, nil
}

// parseRedisURL parses addr into UniversalOptions supporting single, cluster,
// and sentinel Redis deployments. If no scheme is present, addr is treated as
// a plain host:port string.
func parseRedisURL(addr string) (*redis.UniversalOptions, error) {
	if !strings.Contains(addr, "://") {
		return &redis.UniversalOptions{Addrs: []string{addr}}, nil
	}

	u, err := url.Parse(addr)
	if err != nil {
		return nil, err
	}

	opts := &redis.UniversalOptions{}
	if u.User != nil {
		opts.Username = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			opts.Password = pw
		}
	}

	opts.Addrs = strings.Split(u.Host, ",")

	q := u.Query()
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}

	parseDB := func(s string) error {
		db, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("redis: invalid db: %w", err)
		}

		opts.DB = db

		return nil
	}

	switch u.Scheme {
	case "redis", "rediss":
		if u.Path != "" && u.Path != "/" {
			if err := parseDB(strings.TrimPrefix(u.Path, "/")); err != nil {
				return nil, err
			}
		} else if dbStr := q.Get("db"); dbStr != "" {
			if err := parseDB(dbStr); err != nil {
				return nil, err
			}
		}

		if u.Scheme == "rediss" {
			opts.TLSConfig = tlsCfg
		}
	case "redis-sentinel", "rediss-sentinel":
		opts.MasterName = strings.TrimPrefix(u.Path, "/")
		if dbStr := q.Get("db"); dbStr != "" {
			if err := parseDB(dbStr); err != nil {
				return nil, err
			}
		}

		if v := q.Get("sentinel_username"); v != "" {
			opts.SentinelUsername = v
		}

		if v := q.Get("sentinel_password"); v != "" {
			opts.SentinelPassword = v
		}

		if u.Scheme == "rediss-sentinel" {
			opts.TLSConfig = tlsCfg
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL scheme: %s", u.Scheme)
	}

	return opts, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("redis: get %q: %w", key, err)
	}

	return v, nil
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}

	return nil
}

// Close implements Store.
func (r *Redis) Close() error {
	return r.client.Close()
}
