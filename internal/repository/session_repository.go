// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"news-rag-go/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jellydator/ttlcache/v3"
)

// ErrRedisNotConfigured 表示持久层从未配置。
var ErrRedisNotConfigured = errors.New("redis client not configured")

// SessionRepository 定义了单个会话存储层的操作接口。
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (model.SessionHistory, error)
	Set(ctx context.Context, sessionID string, history model.SessionHistory, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// SessionKey 返回会话在 Redis 中的键。
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

type redisSessionRepository struct {
	redisClient *redis.Client
}

// NewRedisSessionRepository 创建基于 Redis 的会话存储层。
func NewRedisSessionRepository(redisClient *redis.Client) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient}
}

// Get 从 Redis 获取会话历史，键不存在时返回空历史。
func (r *redisSessionRepository) Get(ctx context.Context, sessionID string) (model.SessionHistory, error) {
	if r.redisClient == nil {
		return nil, ErrRedisNotConfigured
	}
	jsonData, err := r.redisClient.Get(ctx, SessionKey(sessionID)).Result()
	if err == redis.Nil {
		return model.SessionHistory{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}
	var history model.SessionHistory
	if err := json.Unmarshal([]byte(jsonData), &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session history: %w", err)
	}
	if history == nil {
		history = model.SessionHistory{}
	}
	return history, nil
}

// Set 将会话历史写入 Redis 并重置过期时间。
func (r *redisSessionRepository) Set(ctx context.Context, sessionID string, history model.SessionHistory, ttl time.Duration) error {
	if r.redisClient == nil {
		return ErrRedisNotConfigured
	}
	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal session history: %w", err)
	}
	if err := r.redisClient.Set(ctx, SessionKey(sessionID), jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session history: %w", err)
	}
	return nil
}

// Delete 删除 Redis 中的会话历史。
func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if r.redisClient == nil {
		return ErrRedisNotConfigured
	}
	if err := r.redisClient.Del(ctx, SessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session history: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Ping(ctx context.Context) error {
	if r.redisClient == nil {
		return ErrRedisNotConfigured
	}
	return r.redisClient.Ping(ctx).Err()
}

// memorySessionRepository 是进程内的兜底存储，过期由本地的 ttlcache 负责，进程重启后丢失。
// 读取不刷新 TTL，与 Redis 的 SETEX 语义一致。
type memorySessionRepository struct {
	cache *ttlcache.Cache[string, model.SessionHistory]
}

// NewMemorySessionRepository 创建进程内会话存储层，并启动后台过期清理。
func NewMemorySessionRepository() SessionRepository {
	m := newMemorySessionRepository()
	go m.cache.Start()
	return m
}

func newMemorySessionRepository() *memorySessionRepository {
	return &memorySessionRepository{
		cache: ttlcache.New[string, model.SessionHistory](
			ttlcache.WithDisableTouchOnHit[string, model.SessionHistory](),
		),
	}
}

func (m *memorySessionRepository) Get(_ context.Context, sessionID string) (model.SessionHistory, error) {
	// 已过期但尚未被清理的条目在这里返回 nil
	item := m.cache.Get(sessionID)
	if item == nil {
		return model.SessionHistory{}, nil
	}
	return cloneHistory(item.Value()), nil
}

func (m *memorySessionRepository) Set(_ context.Context, sessionID string, history model.SessionHistory, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	// 重复写入会替换旧条目并重新计时
	m.cache.Set(sessionID, cloneHistory(history), ttl)
	return nil
}

func (m *memorySessionRepository) Delete(_ context.Context, sessionID string) error {
	m.cache.Delete(sessionID)
	return nil
}

func (m *memorySessionRepository) Ping(context.Context) error { return nil }

func cloneHistory(history model.SessionHistory) model.SessionHistory {
	out := make(model.SessionHistory, len(history))
	copy(out, history)
	return out
}
