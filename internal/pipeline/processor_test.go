package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/internal/vectorstore"
	"news-rag-go/pkg/embedding"
	"news-rag-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lengthEmbedder 返回与文本长度相关的二维向量，slow 中的文本会阻塞直到被取消。
type lengthEmbedder struct {
	mu   sync.Mutex
	seen []string
	slow map[string]bool
}

func (e *lengthEmbedder) Embed(ctx context.Context, text string) []float32 {
	e.mu.Lock()
	e.seen = append(e.seen, text)
	e.mu.Unlock()
	if e.slow[text] {
		<-ctx.Done()
		return embedding.Fallback(text)
	}
	return []float32{float32(len(text)), 1}
}

type staticLoader struct {
	articles []tasks.ArticleTask
	err      error
}

func (l staticLoader) LoadArticles(context.Context) ([]tasks.ArticleTask, error) {
	return l.articles, l.err
}

func TestIngest_InsertsAllInInputOrder(t *testing.T) {
	docs, source, err := LoadSeed(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, SourceSeed, source)
	require.Len(t, docs, 5)

	store := vectorstore.New()
	p := NewProcessor(&lengthEmbedder{}, store, time.Second)
	n, err := p.Ingest(context.Background(), docs, source)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 5, store.Len())

	// 所有得分相同时按入库顺序返回
	got := store.Query([]float32{0, 0}, 5)
	require.Len(t, got, 5)
	for i, d := range docs {
		assert.Equal(t, d.URL, got[i].URL)
	}
}

func TestIngest_IsIdempotentPerURL(t *testing.T) {
	docs, _, err := LoadSeed(context.Background(), nil)
	require.NoError(t, err)

	store := vectorstore.New()
	p := NewProcessor(&lengthEmbedder{}, store, time.Second)
	_, err = p.Ingest(context.Background(), docs, SourceSeed)
	require.NoError(t, err)
	_, err = p.Ingest(context.Background(), docs[:2], SourceSeed)
	require.NoError(t, err)
	assert.Equal(t, 5, store.Len())
}

func TestIngest_SlowEmbeddingUsesFallbackVector(t *testing.T) {
	doc := DocumentFromTask(tasks.ArticleTask{Title: "T", Content: "C", URL: "https://example.com/x"}, time.Now())
	text := doc.EmbeddingText()

	store := vectorstore.New()
	p := NewProcessor(&lengthEmbedder{slow: map[string]bool{text: true}}, store, 20*time.Millisecond)

	start := time.Now()
	_, err := p.Ingest(context.Background(), []model.Document{doc}, SourceSeed)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)

	got := store.Query(embedding.Fallback(text), 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
}

func TestIngest_EmptyAndCancelled(t *testing.T) {
	p := NewProcessor(&lengthEmbedder{}, vectorstore.New(), time.Second)

	_, err := p.Ingest(context.Background(), nil, SourceSeed)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	docs, _, err := LoadSeed(context.Background(), nil)
	require.NoError(t, err)
	_, err = p.Ingest(ctx, docs, SourceSeed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess_ValidatesTask(t *testing.T) {
	store := vectorstore.New()
	p := NewProcessor(&lengthEmbedder{}, store, time.Second)

	assert.ErrorIs(t, p.Process(context.Background(), tasks.ArticleTask{Title: "t"}), tasks.ErrMissingURL)
	assert.ErrorIs(t, p.Process(context.Background(), tasks.ArticleTask{URL: "u"}), tasks.ErrMissingTitle)
	assert.Equal(t, 0, store.Len())

	require.NoError(t, p.Process(context.Background(), tasks.ArticleTask{Title: "t", Content: "c", URL: "u"}))
	assert.Equal(t, 1, store.Len())
}

func TestDocumentFromTask(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	doc := DocumentFromTask(tasks.ArticleTask{Title: "t", URL: "https://example.com/a", PublishedAt: "2023-01-02T03:04:05Z"}, now)
	assert.Equal(t, model.DocumentID("https://example.com/a"), doc.ID)
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), doc.PublishedAt)

	doc = DocumentFromTask(tasks.ArticleTask{Title: "t", URL: "u", PublishedAt: "yesterday"}, now)
	assert.Equal(t, now, doc.PublishedAt)
}

func TestLoadSeed_FromLoader(t *testing.T) {
	loader := staticLoader{articles: []tasks.ArticleTask{
		{Title: "A", Content: "a", URL: "https://example.com/a"},
		{Title: "", Content: "invalid", URL: "https://example.com/b"},
	}}
	docs, source, err := LoadSeed(context.Background(), loader)
	require.NoError(t, err)
	assert.Equal(t, SourceMinIO, source)
	require.Len(t, docs, 1)
	assert.Equal(t, "A", docs[0].Title)

	_, _, err = LoadSeed(context.Background(), staticLoader{err: errors.New("no such bucket")})
	assert.Error(t, err)

	_, _, err = LoadSeed(context.Background(), staticLoader{articles: []tasks.ArticleTask{}})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}
