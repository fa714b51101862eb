// Package database 提供会话持久层的 Redis 连接。
package database

import (
	"context"
	"crypto/tls"
	"fmt"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// NewRedisOptions 根据配置解析连接参数。rediss:// 或 tls=true 时启用 TLS。
func NewRedisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("解析 REDIS_URL 失败: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// InitRedis 创建 Redis 客户端并尝试连接。
// 连接失败不是致命错误：客户端仍然返回，之后的调用由会话缓存按策略处理。
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := NewRedisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout())
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warnw("Redis 连接失败, 会话将按策略降级", "addr", opts.Addr, "required", cfg.Required, "error", err)
		return client, nil
	}
	log.Infof("Redis client connected successfully, addr: %s", opts.Addr)
	return client, nil
}
