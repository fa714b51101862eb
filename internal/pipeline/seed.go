package pipeline

import (
	"context"
	"fmt"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/tasks"
)

// 入库来源标签
const (
	SourceSeed  = "seed"
	SourceMinIO = "minio"
	SourceKafka = "kafka"
)

// SeedLoader 提供启动时入库的文章。
type SeedLoader interface {
	LoadArticles(ctx context.Context) ([]tasks.ArticleTask, error)
}

// SampleArticles 返回内置的样例文章。
func SampleArticles(now time.Time) []tasks.ArticleTask {
	published := now.UTC().Format(time.RFC3339)
	return []tasks.ArticleTask{
		{
			Title:       "Global Climate Summit Reaches Historic Agreement",
			Content:     "World leaders have reached a groundbreaking agreement on climate action, setting ambitious targets for carbon emission reductions by 2030. The summit, held in Geneva, saw unprecedented cooperation between major economies.",
			URL:         "https://example.com/climate-summit",
			PublishedAt: published,
		},
		{
			Title:       "Tech Giants Announce Major AI Safety Initiative",
			Content:     "Leading technology companies have announced a joint initiative to develop safer AI systems. The collaboration includes new safety standards and ethical guidelines for AI development.",
			URL:         "https://example.com/ai-safety",
			PublishedAt: published,
		},
		{
			Title:       "Global Economy Shows Signs of Recovery",
			Content:     "Economic indicators suggest a strong recovery across major markets. GDP growth has exceeded expectations in several countries, signaling renewed confidence in global trade.",
			URL:         "https://example.com/economy-recovery",
			PublishedAt: published,
		},
		{
			Title:       "Breakthrough in Renewable Energy Storage",
			Content:     "Scientists have developed a revolutionary battery technology that could store renewable energy for months. This breakthrough could solve one of the biggest challenges in clean energy adoption.",
			URL:         "https://example.com/energy-storage",
			PublishedAt: published,
		},
		{
			Title:       "International Space Station Welcomes New Crew",
			Content:     "A new crew of astronauts has successfully docked with the International Space Station. The mission includes groundbreaking experiments in microgravity research.",
			URL:         "https://example.com/space-station",
			PublishedAt: published,
		},
	}
}

// LoadSeed 返回启动时要入库的文档及来源。loader 为 nil 时使用内置样例文章。
// 无效的条目会被跳过，全部无效时返回 ErrEmptyCorpus。
func LoadSeed(ctx context.Context, loader SeedLoader) ([]model.Document, string, error) {
	now := time.Now()
	source := SourceSeed
	articles := SampleArticles(now)
	if loader != nil {
		loaded, err := loader.LoadArticles(ctx)
		if err != nil {
			return nil, SourceMinIO, fmt.Errorf("加载种子文章失败: %w", err)
		}
		articles, source = loaded, SourceMinIO
	}

	docs := make([]model.Document, 0, len(articles))
	for i, a := range articles {
		if err := a.Validate(); err != nil {
			log.Warnw("[Processor] 跳过无效的种子文章", "index", i, "error", err)
			continue
		}
		docs = append(docs, DocumentFromTask(a, now))
	}
	if len(docs) == 0 {
		return nil, source, ErrEmptyCorpus
	}
	return docs, source, nil
}
