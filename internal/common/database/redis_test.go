package database

import (
	"context"
	"testing"
	"time"

	"franchise-portal/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisClient_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewRedis(config.RedisConfig{Address: mr.Addr()}, "portal")
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Set(ctx, "customerSession", []byte(`{"customerId":"C1"}`), time.Minute))
	assert.True(t, mr.Exists("portal:customerSession"))

	got, err := c.GetBytes(ctx, "customerSession")
	require.NoError(t, err)
	assert.JSONEq(t, `{"customerId":"C1"}`, string(got))

	require.NoError(t, c.Del(ctx, "customerSession"))
	_, err = c.GetBytes(ctx, "customerSession")
	assert.ErrorIs(t, err, ErrNil)
}
