package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c := NewRedis(NewRedisClient(addr, "", 0), "bookstore-test:", time.Minute)
	defer c.Close()

	require.NoError(t, c.HealthCheck(ctx))

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "page", []byte(`{"totalItems":0}`)))
	got, ok, err := c.Get(ctx, "page")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"totalItems":0}`, string(got))
}
