// Package fake provides a deterministic embedder for tests and offline runs.
package fake

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/sevigo/repochunk/embeddings"
)

const DefaultDimension = 64

// Embedder hashes the words of a text into a fixed number of buckets and
// normalizes the result. Texts sharing words get a positive cosine similarity.
type Embedder struct {
	dimension int
}

var _ embeddings.Embedder = (*Embedder)(nil)

func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dimension: dimension}
}

func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vectors[i] = e.embed(text)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, embeddings.ErrEmptyText
	}
	return e.embed(text), nil
}

func (e *Embedder) GetDimension(context.Context) (int, error) {
	return e.dimension, nil
}

func (e *Embedder) embed(text string) []float32 {
	vector := make([]float32, e.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	for _, word := range words {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vector[h.Sum32()%uint32(e.dimension)]++
	}

	var norm float64
	for _, v := range vector {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vector
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vector {
		vector[i] *= scale
	}
	return vector
}
