// Package embeddings turns chunk text into vectors.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	GetDimension(ctx context.Context) (int, error)
}

var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrAlreadyWrapped = errors.New("embedder is already batched")
	ErrVectorCount    = errors.New("embedder returned an unexpected number of vectors")
)

const (
	defaultBatchSize      = 32
	defaultMaxConcurrency = 4
)

// BatchedEmbedder splits large document sets into batches and embeds them
// concurrently on the wrapped client.
type BatchedEmbedder struct {
	client Embedder
	opts   options
}

var _ Embedder = (*BatchedEmbedder)(nil)

func NewEmbedder(client Embedder, opts ...Option) (*BatchedEmbedder, error) {
	embedderOpts := options{
		BatchSize:      defaultBatchSize,
		MaxConcurrency: defaultMaxConcurrency,
	}

	for _, opt := range opts {
		opt(&embedderOpts)
	}

	if embedderOpts.BatchSize <= 0 {
		embedderOpts.BatchSize = defaultBatchSize
	}
	if embedderOpts.MaxConcurrency <= 0 {
		embedderOpts.MaxConcurrency = defaultMaxConcurrency
	}

	if _, ok := client.(*BatchedEmbedder); ok {
		return nil, ErrAlreadyWrapped
	}

	return &BatchedEmbedder{
		client: client,
		opts:   embedderOpts,
	}, nil
}

func (e *BatchedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return e.client.EmbedQuery(ctx, e.preprocessText(text))
}

// EmbedDocuments returns one vector per text, in input order.
func (e *BatchedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processedTexts := make([]string, len(texts))
	for i, text := range texts {
		processedTexts[i] = e.preprocessText(text)
	}

	batches := batchTexts(processedTexts, e.opts.BatchSize)
	batchResults := make([][][]float32, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			vectors, err := e.client.EmbedDocuments(gctx, batch)
			if err != nil {
				return fmt.Errorf("error embedding batch %d: %w", i, err)
			}
			if len(vectors) != len(batch) {
				return fmt.Errorf("%w: batch %d got %d for %d texts", ErrVectorCount, i, len(vectors), len(batch))
			}
			batchResults[i] = vectors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for _, batch := range batchResults {
		allEmbeddings = append(allEmbeddings, batch...)
	}
	return allEmbeddings, nil
}

func (e *BatchedEmbedder) GetDimension(ctx context.Context) (int, error) {
	return e.client.GetDimension(ctx)
}

func (e *BatchedEmbedder) preprocessText(text string) string {
	if e.opts.StripNewLines {
		return strings.ReplaceAll(text, "\n", " ")
	}
	return text
}

func batchTexts(texts []string, batchSize int) [][]string {
	if batchSize <= 0 {
		return [][]string{texts}
	}

	batches := make([][]string, 0, (len(texts)+batchSize-1)/batchSize)
	for i := 0; i < len(texts); i += batchSize {
		batches = append(batches, texts[i:min(i+batchSize, len(texts))])
	}
	return batches
}
