// Package llm provides a client for interacting with Large Language Models.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"news-rag-go/internal/config"
)

// ErrEmptyCompletion 表示模型返回了空的回答。
var ErrEmptyCompletion = errors.New("llm returned empty completion")

// Client defines the interface for an LLM client.
type Client interface {
	// Generate 以单条 user 消息调用聊天接口并返回完整回答。
	Generate(ctx context.Context, prompt string) (string, error)
}

type chatCompletionClient struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient creates a client for an OpenAI-compatible chat completions API.
func NewClient(cfg config.LLMConfig) Client {
	return &chatCompletionClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Message 表示一条角色消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

func (c *chatCompletionClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model:    c.cfg.Model,
		Messages: []Message{{Role: "user", Content: prompt}},
	}
	// 从配置注入生成参数（若非零值）
	if c.cfg.Generation.Temperature != 0 {
		t := c.cfg.Generation.Temperature
		reqBody.Temperature = &t
	}
	if c.cfg.Generation.TopP != 0 {
		p := c.cfg.Generation.TopP
		reqBody.TopP = &p
	}
	if c.cfg.Generation.MaxTokens != 0 {
		m := c.cfg.Generation.MaxTokens
		reqBody.MaxTokens = &m
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call chat api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat api returned non-200 status: %s, body: %s", resp.Status, string(bodyBytes))
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}
