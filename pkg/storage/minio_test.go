package storage

import (
	"strings"
	"testing"

	"news-rag-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeArticles(t *testing.T) {
	body := `[
		{"title":"A","content":"a","url":"https://example.com/a","published_at":"2024-01-01T00:00:00Z"},
		{"title":"B","content":"b","url":"https://example.com/b"}
	]`
	got, err := DecodeArticles(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []tasks.ArticleTask{
		{Title: "A", Content: "a", URL: "https://example.com/a", PublishedAt: "2024-01-01T00:00:00Z"},
		{Title: "B", Content: "b", URL: "https://example.com/b"},
	}, got)

	_, err = DecodeArticles(strings.NewReader(`{"title":"not an array"}`))
	assert.Error(t, err)
}
