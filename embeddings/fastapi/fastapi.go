// Package fastapi is an embedder client for a self-hosted /embed endpoint.
package fastapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/sevigo/repochunk/embeddings"
)

var (
	ErrEmptyServerURL = errors.New("server URL cannot be empty")
	ErrUnexpectedCode = errors.New("embedding server returned non-200 status")
)

type embedRequest struct {
	Texts []string `json:"texts"`
	Task  string   `json:"task,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embedder posts texts to {serverURL}/embed and expects one vector per text.
type Embedder struct {
	serverURL  string
	httpClient *http.Client
	logger     *slog.Logger
	task       string
	apiKey     string

	dimension int
	dimErr    error
	dimOnce   sync.Once
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(serverURL string, opts ...Option) (*Embedder, error) {
	if strings.TrimSpace(serverURL) == "" {
		return nil, ErrEmptyServerURL
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Embedder{
		serverURL:  strings.TrimRight(serverURL, "/"),
		httpClient: options.httpClient,
		logger:     options.logger.With("component", "fastapi_embedder"),
		task:       options.task,
		apiKey:     options.apiKey,
	}, nil
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	payload, err := json.Marshal(embedRequest{Texts: texts, Task: e.task})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serverURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set("X-Api-Key", e.apiKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		e.logger.WarnContext(ctx, "Embedding request rejected", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedCode, resp.StatusCode)
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embedResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: requested %d, received %d",
			embeddings.ErrVectorCount, len(texts), len(embedResp.Embeddings))
	}

	e.logger.DebugContext(ctx, "Embedded batch", "texts", len(texts))
	return embedResp.Embeddings, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embeddings.ErrEmptyText
	}

	results, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// GetDimension embeds a probe text once and caches the vector length.
func (e *Embedder) GetDimension(ctx context.Context) (int, error) {
	e.dimOnce.Do(func() {
		sample, err := e.EmbedQuery(ctx, "dimension_check")
		if err != nil {
			e.dimErr = fmt.Errorf("failed to get dimension: %w", err)
			return
		}
		e.dimension = len(sample)
	})
	return e.dimension, e.dimErr
}
