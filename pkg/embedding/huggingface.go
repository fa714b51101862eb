package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"news-rag-go/internal/config"
	"news-rag-go/pkg/log"
)

// ErrUnexpectedShape 表示 HuggingFace 返回了无法识别的数据结构。
var ErrUnexpectedShape = errors.New("unexpected HF embeddings response shape")

type huggingFaceClient struct {
	cfg    config.EmbeddingProviderConfig
	client *http.Client
}

// NewHuggingFaceClient creates a provider for the HuggingFace inference API.
func NewHuggingFaceClient(cfg config.EmbeddingProviderConfig) Provider {
	return &huggingFaceClient{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (c *huggingFaceClient) Name() string { return "huggingface" }

func (c *huggingFaceClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	log.Debugf("[EmbeddingClient] 调用 HuggingFace Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))
	reqBytes, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal hf request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create hf request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call hf api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("hf api returned non-2xx status: %s", resp.Status)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode hf response: %w", err)
	}
	return parseHFEmbedding(raw)
}

// parseHFEmbedding 兼容三种返回结构：
// [f] 直接返回；[[f]] 单行直接返回、多行做均值池化；[[[f]]] 对第一批做均值池化。
func parseHFEmbedding(raw json.RawMessage) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var rows [][]float32
	if err := json.Unmarshal(raw, &rows); err == nil && len(rows) > 0 && len(rows[0]) > 0 {
		if len(rows) == 1 {
			return rows[0], nil
		}
		return MeanPool(rows), nil
	}

	var batches [][][]float32
	if err := json.Unmarshal(raw, &batches); err == nil && len(batches) > 0 && len(batches[0]) > 0 && len(batches[0][0]) > 0 {
		return MeanPool(batches[0]), nil
	}

	return nil, ErrUnexpectedShape
}
