// Package vectorstore 提供基于线性扫描的内存向量检索。
package vectorstore

import (
	"math"
	"sort"
	"sync"

	"news-rag-go/internal/model"
	"news-rag-go/pkg/log"
)

// DefaultTopK 是未指定 topK 时返回的结果数。
const DefaultTopK = 3

// Record 是存储在向量库中的一条记录，由 Store 独占持有。
type Record struct {
	ID      string
	Vector  []float32
	Payload model.Document
}

// Store 按插入顺序保存所有记录，查询时对每条记录计算余弦相似度。
// 没有淘汰策略，容量随入库文章数增长。
type Store struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int
}

// New 创建一个空的向量库。
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Insert 追加一条记录。ID 已存在时原位替换，保留其最初的插入位置。
func (s *Store) Insert(id string, vector []float32, doc model.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{ID: id, Vector: vector, Payload: doc}
	if pos, ok := s.index[id]; ok {
		s.records[pos] = rec
		return
	}
	s.index[id] = len(s.records)
	s.records = append(s.records, rec)
}

// Len 返回记录数。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Documents 按插入顺序返回所有文档。
func (s *Store) Documents() []model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]model.Document, 0, len(s.records))
	for _, rec := range s.records {
		docs = append(docs, rec.Payload)
	}
	return docs
}

// Query 返回与 vector 最相似的至多 topK 条片段，按得分降序，得分相同时保持插入顺序。
func (s *Store) Query(vector []float32, topK int) []model.ScoredPassage {
	if topK <= 0 {
		topK = DefaultTopK
	}

	s.mu.RLock()
	type scored struct {
		score float64
		doc   model.Document
	}
	results := make([]scored, 0, len(s.records))
	mismatched := 0
	recordDim := 0
	for _, rec := range s.records {
		if len(vector) > 0 && len(rec.Vector) > 0 && len(rec.Vector) != len(vector) {
			mismatched++
			recordDim = len(rec.Vector)
		}
		results = append(results, scored{score: Cosine(vector, rec.Vector), doc: rec.Payload})
	}
	s.mu.RUnlock()

	// 不同提供方的向量维度不一致时得分恒为 0，这里只告警，不做修正
	if mismatched > 0 {
		log.Warnw("[VectorStore] 查询向量与已入库向量维度不一致, 相似度将记为 0",
			"queryDim", len(vector), "recordDim", recordDim, "mismatched", mismatched)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > topK {
		results = results[:topK]
	}

	passages := make([]model.ScoredPassage, 0, len(results))
	for _, r := range results {
		passages = append(passages, model.ScoredPassage{
			Title:   r.doc.Title,
			Content: r.doc.Content,
			URL:     r.doc.URL,
			Score:   r.score,
		})
	}
	return passages
}

// Cosine 计算两个向量的余弦相似度。任一向量为空、长度不同或模为 0 时返回 0。
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		ai, bi := float64(a[i]), float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// 浮点误差可能略微越界
	return math.Max(-1, math.Min(1, sim))
}
