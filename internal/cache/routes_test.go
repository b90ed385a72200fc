package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisRoutesBadURL(t *testing.T) {
	_, err := NewRedisRoutes("not a url", time.Minute, zerolog.Nop())
	assert.Error(t, err)
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisRoutesFromClient(rdb, time.Minute, zerolog.Nop())
	defer c.Close()

	ctx := context.Background()
	c.SetRoutes(ctx, "t1", "routes:t1:company", []string{"Paris - Lyon"})
	routes, ok := c.GetRoutes(ctx, "routes:t1:company")
	assert.False(t, ok)
	assert.Nil(t, routes)
	c.Invalidate(ctx, "routes:t1:company")
	c.InvalidateTenant(ctx, "t1")
}

// Integration test (requires running Redis)
func TestRedisRoutesRoundTrip_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	c, err := NewRedisRoutes(url, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	tenant := "test-" + time.Now().Format(time.RFC3339Nano)
	key := "routes:" + tenant + ":company"
	c.SetRoutes(ctx, tenant, key, []string{"Paris - Lyon", "Lyon - Nice"})

	routes, ok := c.GetRoutes(ctx, key)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Paris - Lyon", "Lyon - Nice"}, routes)

	c.Invalidate(ctx, key)
	_, ok = c.GetRoutes(ctx, key)
	assert.False(t, ok)
}

func TestRedisRoutesInvalidateTenant_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set, skipping integration test")
	}
	c, err := NewRedisRoutes(url, time.Minute, zerolog.Nop())
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	tenant := "test-" + time.Now().Format(time.RFC3339Nano)
	other := tenant + "-other"
	c.SetRoutes(ctx, tenant, "routes:"+tenant+":company", []string{"Paris - Lyon"})
	c.SetRoutes(ctx, tenant, "routes:"+tenant+":user:d1", []string{"Paris - Lyon"})
	c.SetRoutes(ctx, other, "routes:"+other+":company", []string{"Nice - Lyon"})

	c.InvalidateTenant(ctx, tenant)

	_, ok := c.GetRoutes(ctx, "routes:"+tenant+":company")
	assert.False(t, ok)
	_, ok = c.GetRoutes(ctx, "routes:"+tenant+":user:d1")
	assert.False(t, ok)
	_, ok = c.GetRoutes(ctx, "routes:"+other+":company")
	assert.True(t, ok)

	c.InvalidateTenant(ctx, other)
}
