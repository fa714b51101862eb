// Package pipeline 定义了文章入库的核心流程。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/pkg/embedding"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/metrics"
	"news-rag-go/pkg/tasks"
	"news-rag-go/pkg/timeout"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultEmbedTimeout 是入库时单篇文章向量化的默认时限。
	DefaultEmbedTimeout = 1500 * time.Millisecond
	// embedConcurrency 限制同时进行的向量化调用数。
	embedConcurrency = 4
)

// ErrEmptyCorpus 表示没有任何可入库的文章。
var ErrEmptyCorpus = errors.New("no articles to ingest")

// Embedder 把文本转为向量。
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// VectorInserter 是向量库的写入能力。
type VectorInserter interface {
	Insert(id string, vector []float32, doc model.Document)
}

// Processor 封装了文章入库的所有依赖和逻辑。
type Processor struct {
	embedder     Embedder
	store        VectorInserter
	embedTimeout time.Duration
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(embedder Embedder, store VectorInserter, embedTimeout time.Duration) *Processor {
	if embedTimeout <= 0 {
		embedTimeout = DefaultEmbedTimeout
	}
	return &Processor{
		embedder:     embedder,
		store:        store,
		embedTimeout: embedTimeout,
	}
}

// Ingest 向量化并写入 docs，返回写入的篇数。
// 向量化并发进行，写入按输入顺序，保证检索时得分相同的文章保持入库顺序。
func (p *Processor) Ingest(ctx context.Context, docs []model.Document, source string) (int, error) {
	if len(docs) == 0 {
		return 0, ErrEmptyCorpus
	}
	log.Infof("[Processor] 开始入库, source: %s, 文章数: %d", source, len(docs))

	vectors := make([][]float32, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range docs {
		g.Go(func() error {
			text := docs[i].EmbeddingText()
			// 单篇超时使用本地哈希向量，不影响其他文章
			vec, err := timeout.Guard(gctx, p.embedTimeout, embedding.Fallback(text), func(ctx context.Context) ([]float32, error) {
				return p.embedder.Embed(ctx, text), nil
			})
			if err != nil {
				return fmt.Errorf("向量化文章 %q 失败: %w", docs[i].URL, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Errorf("[Processor] 入库中止, source: %s, error: %v", source, err)
		return 0, err
	}

	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = model.DocumentID(doc.URL)
		}
		p.store.Insert(doc.ID, vectors[i], doc)
	}
	metrics.IngestedDocuments.WithLabelValues(source).Add(float64(len(docs)))
	log.Infof("[Processor] 入库完成, source: %s, 文章数: %d", source, len(docs))
	return len(docs), nil
}

// Process 处理一条来自 Kafka 的入库任务。
func (p *Processor) Process(ctx context.Context, task tasks.ArticleTask) error {
	if err := task.Validate(); err != nil {
		return err
	}
	_, err := p.Ingest(ctx, []model.Document{DocumentFromTask(task, time.Now())}, SourceKafka)
	return err
}

// DocumentFromTask 把任务转换为文档。published_at 缺失或无法解析时使用 now。
func DocumentFromTask(task tasks.ArticleTask, now time.Time) model.Document {
	publishedAt := now.UTC()
	if task.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, task.PublishedAt); err == nil {
			publishedAt = t
		} else {
			log.Warnf("[Processor] 无法解析 published_at: %q, 使用当前时间", task.PublishedAt)
		}
	}
	return model.Document{
		ID:          model.DocumentID(task.URL),
		Title:       task.Title,
		Content:     task.Content,
		URL:         task.URL,
		PublishedAt: publishedAt,
	}
}
