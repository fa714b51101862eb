package service

import (
	"context"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/internal/vectorstore"
	"news-rag-go/pkg/embedding"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/timeout"
)

// DefaultRetrieveTimeout 是查询向量化的默认时限。
const DefaultRetrieveTimeout = 1500 * time.Millisecond

// Embedder 把文本转为向量，实现方自行处理降级，不返回错误。
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// PassageIndex 是可按向量检索的段落集合。
type PassageIndex interface {
	Query(vector []float32, topK int) []model.ScoredPassage
}

// SearchService 接口定义了检索操作。
type SearchService interface {
	Retrieve(ctx context.Context, query string, topK int) ([]model.ScoredPassage, error)
}

type searchService struct {
	embedder     Embedder
	index        PassageIndex
	embedTimeout time.Duration
}

// NewSearchService 创建一个新的 SearchService 实例。
// embedTimeout 限制查询向量化的耗时，超时后改用兜底向量继续检索。
func NewSearchService(embedder Embedder, index PassageIndex, embedTimeout time.Duration) SearchService {
	if embedTimeout <= 0 {
		embedTimeout = DefaultRetrieveTimeout
	}
	return &searchService{embedder: embedder, index: index, embedTimeout: embedTimeout}
}

// Retrieve 将查询向量化后在向量库中做余弦相似度检索。
func (s *searchService) Retrieve(ctx context.Context, query string, topK int) ([]model.ScoredPassage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = vectorstore.DefaultTopK
	}
	vector, err := timeout.Guard(ctx, s.embedTimeout, embedding.Fallback(query), func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, query), nil
	})
	if err != nil {
		return nil, err
	}
	// Embed 在取消时也会返回兜底向量，这里需要再检查一次
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	passages := s.index.Query(vector, topK)
	log.Debugf("[SearchService] 检索完成, query_len: %d, dims: %d, hits: %d", len(query), len(vector), len(passages))
	if passages == nil {
		passages = []model.ScoredPassage{}
	}
	return passages, nil
}
