// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import (
	"errors"
	"strings"
)

var (
	ErrMissingURL   = errors.New("article task missing url")
	ErrMissingTitle = errors.New("article task missing title")
)

// ArticleTask represents one article to be ingested into the vector store.
// The same shape is used for the seed object in MinIO.
type ArticleTask struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Validate 检查入库必需的字段。
func (t ArticleTask) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return ErrMissingURL
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrMissingTitle
	}
	return nil
}
