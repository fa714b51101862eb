package model

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Document 代表一篇已入库的新闻文章，入库后不可变。
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// DocumentID 由 URL 的 MD5 摘要生成，同一 URL 重复入库得到相同的 ID。
func DocumentID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// EmbeddingText 返回用于向量化的文本：标题 + 正文。
func (d Document) EmbeddingText() string {
	return d.Title + ". " + d.Content
}

// ScoredPassage 是检索命中的片段及其相似度得分。
type ScoredPassage struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	URL     string  `json:"url"`
	Score   float64 `json:"score"`
}
