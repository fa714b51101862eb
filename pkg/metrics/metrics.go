// Package metrics 定义服务暴露的 Prometheus 指标。
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EmbeddingRequests 按提供方和结果统计向量化调用，fallback 为本地哈希向量。
	EmbeddingRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_rag_embedding_requests_total",
			Help: "Embedding requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	// SessionCacheFallbacks 统计持久层失败后降级到进程内存储的次数。
	SessionCacheFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_rag_session_cache_fallbacks_total",
			Help: "Session cache operations served by the in-process tier after a durable tier failure",
		},
		[]string{"op"},
	)
	// ChatPipeline 按结果统计问答流水线，失败时 outcome 为阶段标签。
	ChatPipeline = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_rag_chat_pipeline_total",
			Help: "Chat pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	// IngestedDocuments 统计入库文章数，source 为 seed 或 kafka。
	IngestedDocuments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "news_rag_ingested_documents_total",
			Help: "Documents ingested into the vector store by source",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(EmbeddingRequests, SessionCacheFallbacks, ChatPipeline, IngestedDocuments)
}

// Handler 返回 /metrics 的 HTTP 处理器。
func Handler() http.Handler {
	return promhttp.Handler()
}
