package repository

import (
	"context"
	"testing"
	"time"

	"news-rag-go/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/jellydator/ttlcache/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisRepo(t *testing.T) (*miniredis.Miniredis, SessionRepository) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisSessionRepository(client)
}

func sampleHistory() model.SessionHistory {
	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return model.SessionHistory{
		{ID: "1", Type: model.MessageTypeUser, Content: "hello", Timestamp: ts},
		{ID: "2", Type: model.MessageTypeBot, Content: "hi", Timestamp: ts,
			Passages: []model.ScoredPassage{{Title: "t", URL: "u", Score: 0.5}}},
	}
}

func TestRedisSessionRepository_RoundTripAndKeyLayout(t *testing.T) {
	ctx := context.Background()
	mr, repo := newMiniredisRepo(t)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), time.Hour))
	assert.True(t, mr.Exists("session:abc"))
	assert.Equal(t, time.Hour, mr.TTL("session:abc"))

	got, err = repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory(), got)

	require.NoError(t, repo.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("session:abc"))
}

func TestRedisSessionRepository_Expiry(t *testing.T) {
	ctx := context.Background()
	mr, repo := newMiniredisRepo(t)

	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), 2*time.Second))
	mr.FastForward(3 * time.Second)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisSessionRepository_MalformedPayload(t *testing.T) {
	mr, repo := newMiniredisRepo(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := repo.Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisSessionRepository_Outage(t *testing.T) {
	ctx := context.Background()
	mr, repo := newMiniredisRepo(t)
	mr.Close()

	_, err := repo.Get(ctx, "abc")
	assert.Error(t, err)
	assert.Error(t, repo.Set(ctx, "abc", sampleHistory(), time.Hour))
	assert.Error(t, repo.Delete(ctx, "abc"))
	assert.Error(t, repo.Ping(ctx))
}

func TestRedisSessionRepository_NilClient(t *testing.T) {
	repo := NewRedisSessionRepository(nil)
	_, err := repo.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrRedisNotConfigured)
	assert.ErrorIs(t, repo.Ping(context.Background()), ErrRedisNotConfigured)
}

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)

	h := sampleHistory()
	require.NoError(t, repo.Set(ctx, "abc", h, time.Hour))
	// 写入后修改调用方的切片不影响已存储的数据
	h[0].Content = "mutated"

	got, err = repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleHistory(), got)

	require.NoError(t, repo.Delete(ctx, "abc"))
	got, err = repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, repo.Ping(ctx))
}

func TestMemorySessionRepository_BackgroundExpiry(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySessionRepository()
	evicted := make(chan string, 1)
	repo.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, model.SessionHistory]) {
		if reason == ttlcache.EvictionReasonExpired {
			evicted <- item.Key()
		}
	})
	go repo.cache.Start()
	t.Cleanup(repo.cache.Stop)

	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), 20*time.Millisecond))

	select {
	case key := <-evicted:
		assert.Equal(t, "abc", key)
	case <-time.After(time.Second):
		t.Fatal("entry was not evicted")
	}
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySessionRepository_ExpiryCheckedOnRead(t *testing.T) {
	ctx := context.Background()
	// 不启动后台清理，只依赖读取时的过期判断
	repo := newMemorySessionRepository()

	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySessionRepository_ReadDoesNotExtendTTL(t *testing.T) {
	ctx := context.Background()
	repo := newMemorySessionRepository()
	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), 60*time.Millisecond))

	time.Sleep(40 * time.Millisecond)
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	time.Sleep(40 * time.Millisecond)
	got, err = repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySessionRepository_ResaveResetsTTL(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository()
	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), 30*time.Millisecond))
	require.NoError(t, repo.Set(ctx, "abc", sampleHistory(), time.Hour))

	time.Sleep(60 * time.Millisecond)
	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
