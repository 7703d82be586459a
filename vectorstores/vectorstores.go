// Package vectorstores stores chunk documents next to their embeddings and
// searches them by similarity.
package vectorstores

import (
	"context"
	"errors"
	"maps"

	"github.com/sevigo/repochunk/schema"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrEmptyFilter        = errors.New("filter must not be empty")
)

type VectorStore interface {
	// AddDocuments upserts documents and returns their point IDs in input order.
	AddDocuments(ctx context.Context, docs []schema.Document, options ...Option) ([]string, error)
	SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...Option) ([]schema.Document, error)
	SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...Option) ([]DocumentWithScore, error)
	// DeleteDocumentsByFilter removes every point whose metadata matches filters.
	DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...Option) error
}

type CollectionManager interface {
	DeleteCollection(ctx context.Context, collectionName string) error
	ListCollections(ctx context.Context) ([]schema.CollectionInfo, error)
}

type DocumentWithScore struct {
	Document schema.Document
	Score    float32
}

type Option func(*Options)

type Options struct {
	NameSpace      string
	ScoreThreshold float32
	Filters        map[string]any
}

func WithNameSpace(namespace string) Option {
	return func(opts *Options) {
		opts.NameSpace = namespace
	}
}

func WithScoreThreshold(threshold float32) Option {
	return func(opts *Options) {
		opts.ScoreThreshold = threshold
	}
}

func WithFilters(filters map[string]any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		maps.Copy(opts.Filters, filters)
	}
}

func WithFilter(key string, value any) Option {
	return func(opts *Options) {
		if opts.Filters == nil {
			opts.Filters = make(map[string]any)
		}
		opts.Filters[key] = value
	}
}

// WithFilePath restricts a search to chunks of one repository file.
func WithFilePath(path string) Option {
	return WithFilter("file_path", path)
}

// WithChunkType restricts a search to chunks of the given types.
func WithChunkType(types ...schema.ChunkType) Option {
	if len(types) == 1 {
		return WithFilter("chunk_type", string(types[0]))
	}
	values := make([]string, len(types))
	for i, t := range types {
		values[i] = string(t)
	}
	return WithFilter("chunk_type", values)
}

func ParseOptions(options ...Option) Options {
	opts := Options{
		Filters: make(map[string]any),
	}
	for _, option := range options {
		option(&opts)
	}
	return opts
}

// AddChunks stores chunks under their stable chunk IDs.
func AddChunks(ctx context.Context, store VectorStore, chunks []schema.Chunk, options ...Option) ([]string, error) {
	if len(chunks) == 0 {
		return []string{}, nil
	}
	return store.AddDocuments(ctx, ChunkDocuments(chunks), options...)
}

// ReplaceFile drops every stored chunk of path and stores chunks in its place.
func ReplaceFile(ctx context.Context, store VectorStore, path string, chunks []schema.Chunk, options ...Option) ([]string, error) {
	if err := store.DeleteDocumentsByFilter(ctx, map[string]any{"file_path": path}, options...); err != nil &&
		!errors.Is(err, ErrCollectionNotFound) {
		return nil, err
	}
	return AddChunks(ctx, store, chunks, options...)
}
