package qcache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// redisCache is a Redis-backed Cache, the primary implementation when
// REDIS_ADDR is set (spec §6).
type redisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// OpenRedis connects to addr and verifies reachability before returning.
func OpenRedis(addr, password string, db int, tlsInsecure bool, ttl time.Duration) (Cache, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if tlsInsecure {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis query cache ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &redisCache{client: client, ttl: ttl, prefix: "floatchat:qcache:"}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (Entry, bool) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("key", key).Msg("qcache_redis_get_error")
		}
		return Entry{}, false
	}
	entry, err := decode(val)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("qcache_redis_decode_error")
		return Entry{}, false
	}
	return entry, true
}

func (c *redisCache) Set(ctx context.Context, key string, entry Entry) error {
	data, err := encode(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

func (c *redisCache) Close() error { return c.client.Close() }
