package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/internal/repository"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/metrics"
	"news-rag-go/pkg/timeout"
)

// ErrStoreUnavailable 表示严格模式下持久层不可用。
var ErrStoreUnavailable = errors.New("session store unavailable")

// CachePolicy 决定持久层失败时的处理方式。
type CachePolicy int

const (
	// PolicyLenient 持久层失败时降级到进程内存储。
	PolicyLenient CachePolicy = iota
	// PolicyStrict 持久层失败时整个调用失败。
	PolicyStrict
)

// PolicyFor 根据 REQUIRE_REDIS 的取值返回策略。
func PolicyFor(requireDurable bool) CachePolicy {
	if requireDurable {
		return PolicyStrict
	}
	return PolicyLenient
}

func (p CachePolicy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}

// 持久层状态
const (
	StatusConnected   = "connected"
	StatusUnavailable = "unavailable"
)

const (
	DefaultSessionTTL     = time.Hour
	DefaultCacheOpTimeout = 500 * time.Millisecond
)

// SessionCache 是双层会话存储：先访问持久层，失败时按策略降级或报错。
type SessionCache struct {
	durable   repository.SessionRepository
	memory    repository.SessionRepository
	policy    CachePolicy
	ttl       time.Duration
	opTimeout time.Duration
}

// NewSessionCache 创建会话缓存。durable 为 nil 表示持久层从未配置，视为不可用。
func NewSessionCache(durable, memory repository.SessionRepository, policy CachePolicy, ttl, opTimeout time.Duration) *SessionCache {
	if memory == nil {
		memory = repository.NewMemorySessionRepository()
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if opTimeout <= 0 {
		opTimeout = DefaultCacheOpTimeout
	}
	return &SessionCache{
		durable:   durable,
		memory:    memory,
		policy:    policy,
		ttl:       ttl,
		opTimeout: opTimeout,
	}
}

// Policy 返回当前策略。
func (c *SessionCache) Policy() CachePolicy { return c.policy }

// Load 读取会话历史，两层都没有时返回空历史。
func (c *SessionCache) Load(ctx context.Context, sessionID string) (model.SessionHistory, error) {
	var history model.SessionHistory
	err := c.durableCall(ctx, func(ctx context.Context, repo repository.SessionRepository) error {
		h, err := repo.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err == nil {
		return history, nil
	}
	if ferr := c.fallback(ctx, "load", sessionID, err); ferr != nil {
		return nil, ferr
	}
	return c.memory.Get(ctx, sessionID)
}

// Save 写入会话历史并重置 TTL。
func (c *SessionCache) Save(ctx context.Context, sessionID string, history model.SessionHistory) error {
	err := c.durableCall(ctx, func(ctx context.Context, repo repository.SessionRepository) error {
		return repo.Set(ctx, sessionID, history, c.ttl)
	})
	if err == nil {
		return nil
	}
	if ferr := c.fallback(ctx, "save", sessionID, err); ferr != nil {
		return ferr
	}
	return c.memory.Set(ctx, sessionID, history, c.ttl)
}

// Clear 删除会话历史。
func (c *SessionCache) Clear(ctx context.Context, sessionID string) error {
	err := c.durableCall(ctx, func(ctx context.Context, repo repository.SessionRepository) error {
		return repo.Delete(ctx, sessionID)
	})
	if err == nil {
		return nil
	}
	if ferr := c.fallback(ctx, "clear", sessionID, err); ferr != nil {
		return ferr
	}
	return c.memory.Delete(ctx, sessionID)
}

// Status 只反映持久层的连通性，与实际服务请求的是哪一层无关。
func (c *SessionCache) Status(ctx context.Context) string {
	err := c.durableCall(ctx, func(ctx context.Context, repo repository.SessionRepository) error {
		return repo.Ping(ctx)
	})
	if err != nil {
		return StatusUnavailable
	}
	return StatusConnected
}

// durableCall 在 opTimeout 内执行一次持久层调用。
func (c *SessionCache) durableCall(ctx context.Context, op func(ctx context.Context, repo repository.SessionRepository) error) error {
	if c.durable == nil {
		return repository.ErrRedisNotConfigured
	}
	return timeout.Call(ctx, c.opTimeout, func(ctx context.Context) error {
		return op(ctx, c.durable)
	})
}

// fallback 按策略处理持久层错误：严格模式返回 ErrStoreUnavailable，宽松模式返回 nil 表示可以降级。
// 调用方已取消时原样返回 ctx.Err()，两层都不写。
func (c *SessionCache) fallback(ctx context.Context, op, sessionID string, cause error) error {
	if err := ctx.Err(); err != nil {
		log.Debugf("[SessionCache] 调用方已取消, op: %s, sessionId: %s", op, sessionID)
		return err
	}
	if c.policy == PolicyStrict {
		log.Errorw("持久层不可用，严格模式下拒绝降级", "op", op, "sessionId", sessionID, "error", cause)
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, cause)
	}
	metrics.SessionCacheFallbacks.WithLabelValues(op).Inc()
	log.Warnw("持久层不可用，降级到进程内存储", "op", op, "sessionId", sessionID, "error", cause)
	return nil
}
