package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/pkg/llm"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/timeout"
)

// DefaultGenerationTimeout 是单次生成调用的默认时限。
const DefaultGenerationTimeout = 10 * time.Second

const (
	noKeyPrefix       = "No LLM key configured. Here's what I found based on retrieval:\n\n"
	unavailablePrefix = "LLM unavailable. Here's retrieved context instead:\n\n"
	timedOutPrefix    = "Timed out generating answer. Here's retrieved context instead:\n\n"
)

// AnswerService 根据检索到的段落生成回答，模型不可用时返回检索上下文。
type AnswerService struct {
	client       llm.Client
	timeout      time.Duration
	isProduction bool
}

// NewAnswerService 创建回答服务。client 为 nil 表示未配置模型密钥。
func NewAnswerService(client llm.Client, generationTimeout time.Duration, isProduction bool) *AnswerService {
	if generationTimeout <= 0 {
		generationTimeout = DefaultGenerationTimeout
	}
	return &AnswerService{
		client:       client,
		timeout:      generationTimeout,
		isProduction: isProduction,
	}
}

// Answer 生成回答。模型错误和超时都会转为带上下文的兜底文本，只有调用方取消时返回错误。
func (s *AnswerService) Answer(ctx context.Context, query string, passages []model.ScoredPassage) (string, error) {
	contextText := BuildContextText(passages)
	if s.client == nil {
		return noKeyPrefix + contextText, nil
	}

	prompt := BuildPrompt(query, contextText)
	return timeout.Guard(ctx, s.timeout, timedOutPrefix+contextText, func(ctx context.Context) (string, error) {
		text, err := s.client.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Errorf("[AnswerService] LLM 调用失败: %v", err)
		answer := unavailablePrefix + contextText
		if !s.isProduction {
			answer = fmt.Sprintf("%s\n\n(details: %s)", answer, err.Error())
		}
		return answer, nil
	})
}

// BuildContextText 把段落拼成 Title/Content/URL 块。
func BuildContextText(passages []model.ScoredPassage) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nContent: %s\nURL: %s", p.Title, p.Content, p.URL))
	}
	return strings.Join(blocks, "\n\n")
}

// BuildPrompt 构建发送给模型的提示词。
func BuildPrompt(query, contextText string) string {
	var b strings.Builder
	b.WriteString("Based on the following news articles, please answer the user's question. ")
	b.WriteString("If the information is not available in the provided articles, please say so.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nPlease provide a comprehensive answer based on the available information and cite relevant sources when possible.")
	return b.String()
}
