// Package fake is an in-memory vector store for tests and offline runs.
package fake

import (
	"cmp"
	"context"
	"maps"
	"math"
	"reflect"
	"slices"
	"sync"

	"github.com/sevigo/repochunk/embeddings"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/vectorstores"
)

const defaultCollection = "fake-collection"

type point struct {
	doc    schema.Document
	vector []float32
}

// Store keeps points per collection and scores them by cosine similarity.
// Points added under an existing ID replace the old point.
type Store struct {
	mu          sync.RWMutex
	embedder    embeddings.Embedder
	collections map[string]map[string]point
	order       map[string][]string
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
)

// New creates an empty store that embeds with embedder.
func New(embedder embeddings.Embedder) *Store {
	return &Store{
		embedder:    embedder,
		collections: make(map[string]map[string]point),
		order:       make(map[string][]string),
	}
}

// AddDocuments embeds and stores docs.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	name := collectionName(vectorstores.ParseOptions(options...))

	s.mu.Lock()
	defer s.mu.Unlock()
	collection, ok := s.collections[name]
	if !ok {
		collection = make(map[string]point)
		s.collections[name] = collection
	}

	ids := make([]string, len(docs))
	for i, doc := range docs {
		id := vectorstores.DocumentID(doc)
		if _, exists := collection[id]; !exists {
			s.order[name] = append(s.order[name], id)
		}
		collection[id] = point{
			doc:    schema.NewDocument(doc.PageContent, maps.Clone(doc.Metadata)),
			vector: vectors[i],
		}
		ids[i] = id
	}
	return ids, nil
}

// SimilaritySearch returns the numDocuments best matching documents.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(scored))
	for i, result := range scored {
		docs[i] = result.Document
	}
	return docs, nil
}

// SimilaritySearchWithScores ranks matching documents by cosine similarity.
// Ties keep insertion order.
func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if numDocuments <= 0 {
		return []vectorstores.DocumentWithScore{}, nil
	}
	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	opts := vectorstores.ParseOptions(options...)
	name := collectionName(opts)

	s.mu.RLock()
	defer s.mu.RUnlock()
	collection, ok := s.collections[name]
	if !ok {
		return nil, vectorstores.ErrCollectionNotFound
	}

	results := make([]vectorstores.DocumentWithScore, 0, len(collection))
	for _, id := range s.order[name] {
		p, ok := collection[id]
		if !ok || !matches(p.doc, opts.Filters) {
			continue
		}
		score := cosine(queryVector, p.vector)
		if score < opts.ScoreThreshold {
			continue
		}
		results = append(results, vectorstores.DocumentWithScore{Document: p.doc, Score: score})
	}

	slices.SortStableFunc(results, func(a, b vectorstores.DocumentWithScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results[:min(numDocuments, len(results))], nil
}

// DeleteDocumentsByFilter removes every document matching filters.
func (s *Store) DeleteDocumentsByFilter(_ context.Context, filters map[string]any, options ...vectorstores.Option) error {
	if len(filters) == 0 {
		return vectorstores.ErrEmptyFilter
	}
	name := collectionName(vectorstores.ParseOptions(options...))

	s.mu.Lock()
	defer s.mu.Unlock()
	collection, ok := s.collections[name]
	if !ok {
		return vectorstores.ErrCollectionNotFound
	}
	for id, p := range collection {
		if matches(p.doc, filters) {
			delete(collection, id)
		}
	}
	s.order[name] = slices.DeleteFunc(s.order[name], func(id string) bool {
		_, ok := collection[id]
		return !ok
	})
	return nil
}

// DeleteCollection drops a collection and its documents.
func (s *Store) DeleteCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		return vectorstores.ErrCollectionNotFound
	}
	delete(s.collections, name)
	delete(s.order, name)
	return nil
}

// ListCollections describes every collection, sorted by name.
func (s *Store) ListCollections(ctx context.Context) ([]schema.CollectionInfo, error) {
	dimension, err := s.embedder.GetDimension(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]schema.CollectionInfo, 0, len(s.collections))
	for _, name := range slices.Sorted(maps.Keys(s.collections)) {
		infos = append(infos, schema.CollectionInfo{
			Name:           name,
			PointsCount:    uint64(len(s.collections[name])),
			VectorSize:     uint64(dimension),
			VectorDistance: "Cosine",
		})
	}
	return infos, nil
}

// Docs returns the documents of the default collection in insertion order.
func (s *Store) Docs() []schema.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]schema.Document, 0, len(s.order[defaultCollection]))
	for _, id := range s.order[defaultCollection] {
		docs = append(docs, s.collections[defaultCollection][id].doc)
	}
	return docs
}

func collectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return defaultCollection
}

func matches(doc schema.Document, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := doc.Metadata[key]
		if !ok {
			return false
		}
		switch w := want.(type) {
		case []string:
			s, isString := got.(string)
			if !isString || !slices.Contains(w, s) {
				return false
			}
		default:
			if !reflect.DeepEqual(got, want) {
				return false
			}
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range min(len(a), len(b)) {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
