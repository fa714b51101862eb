package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"news-rag-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	text   string
	err    error
	block  bool
	prompt string
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

var climatePassages = []model.ScoredPassage{
	{Title: "Climate", Content: "Leaders agreed.", URL: "https://example.com/climate-summit", Score: 0.9},
	{Title: "Economy", Content: "Recovery.", URL: "https://example.com/economy-recovery", Score: 0.1},
}

const climateContext = "Title: Climate\nContent: Leaders agreed.\nURL: https://example.com/climate-summit\n\n" +
	"Title: Economy\nContent: Recovery.\nURL: https://example.com/economy-recovery"

func TestBuildContextText(t *testing.T) {
	assert.Equal(t, climateContext, BuildContextText(climatePassages))
	assert.Equal(t, "", BuildContextText(nil))
}

func TestAnswer_NoClient(t *testing.T) {
	s := NewAnswerService(nil, time.Second, false)
	got, err := s.Answer(context.Background(), "q", climatePassages)
	require.NoError(t, err)
	assert.Equal(t, "No LLM key configured. Here's what I found based on retrieval:\n\n"+climateContext, got)
}

func TestAnswer_Success(t *testing.T) {
	llm := &fakeLLM{text: "They agreed on targets."}
	s := NewAnswerService(llm, time.Second, false)

	got, err := s.Answer(context.Background(), "What happened?", climatePassages)
	require.NoError(t, err)
	assert.Equal(t, "They agreed on targets.", got)
	assert.Contains(t, llm.prompt, "Context:\n"+climateContext)
	assert.Contains(t, llm.prompt, "Question: What happened?")
}

func TestAnswer_LLMError(t *testing.T) {
	llmErr := errors.New("quota exceeded")

	t.Run("development shows details", func(t *testing.T) {
		s := NewAnswerService(&fakeLLM{err: llmErr}, time.Second, false)
		got, err := s.Answer(context.Background(), "q", climatePassages)
		require.NoError(t, err)
		assert.Equal(t, "LLM unavailable. Here's retrieved context instead:\n\n"+climateContext+"\n\n(details: quota exceeded)", got)
	})

	t.Run("production hides details", func(t *testing.T) {
		s := NewAnswerService(&fakeLLM{err: llmErr}, time.Second, true)
		got, err := s.Answer(context.Background(), "q", climatePassages)
		require.NoError(t, err)
		assert.Equal(t, "LLM unavailable. Here's retrieved context instead:\n\n"+climateContext, got)
	})
}

func TestAnswer_Timeout(t *testing.T) {
	s := NewAnswerService(&fakeLLM{block: true}, 30*time.Millisecond, false)
	got, err := s.Answer(context.Background(), "q", climatePassages)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "Timed out generating answer. Here's retrieved context instead:\n\n"))
	assert.True(t, strings.HasSuffix(got, climateContext))
}

func TestAnswer_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewAnswerService(&fakeLLM{block: true}, time.Second, false)
	_, err := s.Answer(ctx, "q", climatePassages)
	assert.ErrorIs(t, err, context.Canceled)
}
