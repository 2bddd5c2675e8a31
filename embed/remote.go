package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"similarity-lab/config"
	"similarity-lab/ranker"
)

/*
RemoteEncoder calls an OpenAI-compatible embeddings endpoint
(POST {BaseURL}/embeddings).
*/
type RemoteEncoder struct {
	BaseURL string
	Model   string
	APIKey  string
	// expected output length, 0 accepts any
	Dims   int
	Client *http.Client
}

/*
NewRemoteEncoder builds a remote encoder from the embedding configuration
*/
func NewRemoteEncoder(cfg config.EmbeddingConfig) *RemoteEncoder {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteEncoder{
		BaseURL: strings.TrimRight(cfg.Endpoint, "/"),
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (r *RemoteEncoder) Dimensions() int {
	return r.Dims
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (r *RemoteEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: r.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute embedding request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	v := parsed.Data[0].Embedding
	if r.Dims > 0 && len(v) != r.Dims {
		return nil, fmt.Errorf("%w: endpoint returned %d dimensions, expected %d", ranker.ErrDimensionMismatch, len(v), r.Dims)
	}
	log.Debugf("embedded %d chars with %s", len(text), r.Model)
	return v, nil
}
