package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFormats(t *testing.T) {
	opt, err := Options("redis://:pw@cache.internal:6380/2", false)
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = Options("localhost:6379", true)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opt.Addr)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)

	_, err = Options("", false)
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), "redis://"+addr, false)
	require.NoError(t, err)
	defer client.Close()

	mr.Close()
	_, err = Connect(context.Background(), "redis://"+addr, false)
	assert.Error(t, err)
}

func TestHealthCheckFollowsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), false)
	require.NoError(t, err)
	defer client.Close()

	check := NewHealthCheck(client)
	assert.NoError(t, check.Ping(context.Background()))

	mr.Close()
	assert.Error(t, check.Ping(context.Background()))
}
