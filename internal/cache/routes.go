// Package cache keeps route summaries in Redis. Every method is best effort:
// errors are logged and reported as misses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "fleet-trips:"

type RedisRoutes struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewRedisRoutes(url string, ttl time.Duration, log zerolog.Logger) (*RedisRoutes, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisRoutesFromClient(redis.NewClient(opt), ttl, log), nil
}

func NewRedisRoutesFromClient(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisRoutes {
	return &RedisRoutes{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "route_cache").Logger(),
	}
}

func (c *RedisRoutes) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisRoutes) GetRoutes(ctx context.Context, key string) ([]string, bool) {
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn().Err(err).Str("key", key).Msg("route cache read failed")
		}
		return nil, false
	}
	var routes []string
	if err := json.Unmarshal(data, &routes); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("route cache entry is corrupt")
		return nil, false
	}
	return routes, true
}

// SetRoutes stores the entry and records its key in the tenant's key set.
func (c *RedisRoutes) SetRoutes(ctx context.Context, tenant, key string, routes []string) {
	if routes == nil {
		routes = []string{}
	}
	data, err := json.Marshal(routes)
	if err != nil {
		return
	}
	members := tenantKey(tenant)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyPrefix+key, data, c.ttl)
		pipe.SAdd(ctx, members, key)
		pipe.Expire(ctx, members, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("route cache write failed")
	}
}

func (c *RedisRoutes) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	prefixed := make([]string, 0, len(keys))
	for _, key := range keys {
		prefixed = append(prefixed, keyPrefix+key)
	}
	if err := c.rdb.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("route cache invalidation failed")
	}
}

// InvalidateTenant drops every entry recorded for the tenant.
func (c *RedisRoutes) InvalidateTenant(ctx context.Context, tenant string) {
	members := tenantKey(tenant)
	keys, err := c.rdb.SMembers(ctx, members).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("tenant", tenant).Msg("route cache tenant lookup failed")
		return
	}
	prefixed := make([]string, 0, len(keys)+1)
	for _, key := range keys {
		prefixed = append(prefixed, keyPrefix+key)
	}
	prefixed = append(prefixed, members)
	if err := c.rdb.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warn().Err(err).Str("tenant", tenant).Msg("route cache tenant invalidation failed")
	}
}

func tenantKey(tenant string) string {
	return keyPrefix + "tenant:" + tenant + ":keys"
}

func (c *RedisRoutes) Close() error {
	return c.rdb.Close()
}
