package embedding

import (
	"context"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/metrics"
	"news-rag-go/pkg/timeout"
	"strings"
	"time"
)

// DefaultProviderTimeout 是单个远程提供方的默认调用时限。
const DefaultProviderTimeout = 8 * time.Second

// Gateway 按顺序尝试各提供方，第一个成功的结果生效；全部失败时返回本地哈希向量。
// Embed 从不向调用方返回错误。
type Gateway struct {
	providers []Provider
	timeout   time.Duration
}

// NewGateway 创建网关，providers 的顺序即尝试顺序。
func NewGateway(timeout time.Duration, providers ...Provider) *Gateway {
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}
	return &Gateway{providers: providers, timeout: timeout}
}

// NewGatewayFromConfig 根据配置中的凭据组装提供方，没有凭据的提供方不会被创建。
// provider 为 "hf" 时 HuggingFace 优先，否则 Jina 优先。
func NewGatewayFromConfig(cfg config.EmbeddingConfig) *Gateway {
	var jina, hf Provider
	if cfg.Jina.APIKey != "" {
		jina = NewJinaClient(cfg.Jina)
	}
	if cfg.HF.APIKey != "" {
		hf = NewHuggingFaceClient(cfg.HF)
	}

	ordered := []Provider{jina, hf}
	if strings.EqualFold(cfg.Provider, "hf") {
		ordered = []Provider{hf, jina}
	}
	providers := make([]Provider, 0, 2)
	for _, p := range ordered {
		if p != nil {
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		log.Info("[EmbeddingGateway] 未配置任何远程提供方, 使用本地哈希向量")
	}
	return NewGateway(cfg.Timeout(), providers...)
}

// Providers 返回按尝试顺序排列的提供方名称。
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.providers))
	for _, p := range g.providers {
		names = append(names, p.Name())
	}
	return names
}

// Embed 返回文本的向量。
func (g *Gateway) Embed(ctx context.Context, text string) []float32 {
	for _, p := range g.providers {
		if ctx.Err() != nil {
			break
		}
		vec, err := timeout.Guard(ctx, g.timeout, []float32(nil), func(ctx context.Context) ([]float32, error) {
			return p.CreateEmbedding(ctx, text)
		})
		if err != nil {
			log.Warnw("[EmbeddingGateway] 提供方调用失败, 尝试下一个", "provider", p.Name(), "error", err)
			metrics.EmbeddingRequests.WithLabelValues(p.Name(), "error").Inc()
			continue
		}
		if len(vec) == 0 {
			log.Warnw("[EmbeddingGateway] 提供方超时或返回空向量, 尝试下一个", "provider", p.Name())
			metrics.EmbeddingRequests.WithLabelValues(p.Name(), "empty").Inc()
			continue
		}
		metrics.EmbeddingRequests.WithLabelValues(p.Name(), "ok").Inc()
		return vec
	}
	metrics.EmbeddingRequests.WithLabelValues("fallback", "ok").Inc()
	return Fallback(text)
}
