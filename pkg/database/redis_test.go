package database

import (
	"context"
	"testing"

	"news-rag-go/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisOptions(t *testing.T) {
	opts, err := NewRedisOptions(config.RedisConfig{URL: "redis://localhost:6380/2", Password: "secret", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, "secret", opts.Password)
	assert.NotNil(t, opts.TLSConfig)

	opts, err = NewRedisOptions(config.RedisConfig{URL: "redis://localhost:6379"})
	require.NoError(t, err)
	assert.Nil(t, opts.TLSConfig)

	_, err = NewRedisOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := InitRedis(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr(), OpTimeoutMs: 500})
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())

	// 连接失败时仍返回客户端
	addr := mr.Addr()
	mr.Close()
	client2, err := InitRedis(context.Background(), config.RedisConfig{URL: "redis://" + addr, OpTimeoutMs: 200})
	require.NoError(t, err)
	defer client2.Close()
	assert.Error(t, client2.Ping(context.Background()).Err())
}
