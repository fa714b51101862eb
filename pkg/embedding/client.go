// Package embedding provides clients for remote embedding providers and a
// gateway that falls back to a deterministic local vector.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"
)

// Provider 是单个向量化提供方的能力接口。
type Provider interface {
	Name() string
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// jinaClient 调用 OpenAI 兼容的 /embeddings 接口（Jina 使用相同的协议）。
type jinaClient struct {
	cfg    config.EmbeddingProviderConfig
	client *http.Client
}

// NewJinaClient creates a provider for the Jina (OpenAI-compatible) embeddings API.
func NewJinaClient(cfg config.EmbeddingProviderConfig) Provider {
	return &jinaClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (c *jinaClient) Name() string { return "jina" }

// CreateEmbedding calls the OpenAI-compatible API to get the vector for a given text.
func (c *jinaClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Debugf("[EmbeddingClient] 调用 Jina Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))
	reqBytes, err := json.Marshal(embeddingRequest{
		Model: c.cfg.Model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("embedding api returned non-2xx status: %s", resp.Status)
	}

	var embeddingResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(embeddingResp.Data) == 0 || len(embeddingResp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("received empty embedding from api")
	}
	return embeddingResp.Data[0].Embedding, nil
}
