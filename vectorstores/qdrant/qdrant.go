// Package qdrant stores chunk documents in a Qdrant collection over gRPC.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sevigo/repochunk/embeddings"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/vectorstores"
)

var (
	ErrMissingEmbedder       = errors.New("qdrant: embedder is required but not provided")
	ErrMissingCollectionName = errors.New("qdrant: collection name is required")
	ErrInvalidNumDocuments   = errors.New("qdrant: number of documents must be positive")
	ErrInvalidURL            = errors.New("qdrant: invalid URL provided")
	ErrBatchSizeTooLarge     = errors.New("qdrant: batch size exceeds maximum allowed")
	ErrDimensionMismatch     = errors.New("qdrant: embedder returned a different number of vectors")
)

const (
	DefaultBatchSize      = 100
	MaxBatchSize          = 1000
	DefaultMaxConcurrency = 8
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = time.Second
	DefaultMaxRetryDelay  = 30 * time.Second

	contentKey = "page_content"
)

type Store struct {
	client         *qdrant.Client
	embedder       embeddings.Embedder
	collectionName string
	logger         *slog.Logger
	options        options
}

var (
	_ vectorstores.VectorStore       = (*Store)(nil)
	_ vectorstores.CollectionManager = (*Store)(nil)
)

func New(opts ...Option) (*Store, error) {
	storeOptions, err := parseOptions(opts...)
	if err != nil {
		return nil, err
	}
	logger := storeOptions.logger.With("component", "qdrant_store", "collection", storeOptions.collectionName)

	client, err := createQdrantClient(storeOptions, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	logger.Info("Qdrant store initialized", "config", storeOptions.String())
	return &Store{
		client:         client,
		embedder:       storeOptions.embedder,
		collectionName: storeOptions.collectionName,
		logger:         logger,
		options:        storeOptions,
	}, nil
}

func createQdrantClient(opts options, logger *slog.Logger) (*qdrant.Client, error) {
	portStr := opts.qdrantURL.Port()
	if portStr == "" {
		portStr = strconv.Itoa(defaultPort)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid port %q: %w", ErrInvalidURL, portStr, err)
	}

	hostname := opts.qdrantURL.Hostname()
	logger.Debug("Creating Qdrant client", "host", hostname, "port", port, "tls", opts.useTLS)

	return qdrant.NewClient(&qdrant.Config{
		Host:   hostname,
		Port:   port,
		APIKey: opts.apiKey,
		UseTLS: opts.useTLS,
	})
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// AddDocuments embeds docs and upserts them under their stable IDs. The
// collection is created on first use with the embedder's dimension.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	start := time.Now()
	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	if err := s.ensureCollection(ctx, collectionName); err != nil {
		return nil, fmt.Errorf("collection preparation failed: %w", err)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document embedding stage failed: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: %d vectors for %d documents", ErrDimensionMismatch, len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		ids[i] = vectorstores.DocumentID(doc)
		points[i] = &qdrant.PointStruct{
			Id:      &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: ids[i]}},
			Vectors: &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vectors[i]}}},
			Payload: documentToPayload(doc),
		}
	}

	if err := s.upsertPointsInBatches(ctx, collectionName, points); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Documents upserted",
		"collection", collectionName, "count", len(points), "duration", time.Since(start))
	return ids, nil
}

func (s *Store) upsertPointsInBatches(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.maxConcurrency)

	for batchStart := 0; batchStart < len(points); batchStart += s.options.batchSize {
		batch := points[batchStart:min(batchStart+s.options.batchSize, len(points))]
		g.Go(func() error {
			if err := s.upsertWithRetry(gctx, collectionName, batch); err != nil {
				return fmt.Errorf("batch at offset %d: %w", batchStart, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Store) upsertWithRetry(ctx context.Context, collectionName string, points []*qdrant.PointStruct) error {
	var lastErr error
	delay := s.options.retryDelay
	wait := true

	for attempt := 0; attempt <= s.options.retryAttempts; attempt++ {
		if attempt > 0 {
			s.logger.WarnContext(ctx, "Retrying upsert", "attempt", attempt, "error", lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay = min(time.Duration(float64(delay)*1.5), DefaultMaxRetryDelay)
		}

		_, err := s.client.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collectionName,
			Wait:           &wait,
			Points:         points,
		})
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return fmt.Errorf("upsert failed: %w", err)
		}
		lastErr = err
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", s.options.retryAttempts+1, lastErr)
}

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

func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if strings.TrimSpace(query) == "" {
		s.logger.WarnContext(ctx, "Empty query provided")
		return []vectorstores.DocumentWithScore{}, nil
	}
	if numDocuments <= 0 {
		return nil, ErrInvalidNumDocuments
	}

	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	start := time.Now()
	searchResult, err := s.client.GetPointsClient().Search(ctx, &qdrant.SearchPoints{
		CollectionName: collectionName,
		Vector:         queryVector,
		Limit:          uint64(numDocuments),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
		ScoreThreshold: &opts.ScoreThreshold,
		Filter:         buildQdrantFilter(opts.Filters),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, vectorstores.ErrCollectionNotFound
		}
		s.logger.ErrorContext(ctx, "Search failed", "error", err, "collection", collectionName)
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := searchResult.GetResult()
	docsWithScore := make([]vectorstores.DocumentWithScore, len(results))
	for i, point := range results {
		docsWithScore[i] = vectorstores.DocumentWithScore{
			Document: payloadToDocument(point.GetPayload()),
			Score:    point.GetScore(),
		}
	}

	s.logger.DebugContext(ctx, "Similarity search completed",
		"collection", collectionName, "results", len(docsWithScore), "duration", time.Since(start))
	return docsWithScore, nil
}

// DeleteDocumentsByFilter removes every point whose payload matches filters,
// e.g. all chunks of one file before it is re-chunked.
func (s *Store) DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...vectorstores.Option) error {
	qdrantFilter := buildQdrantFilter(filters)
	if qdrantFilter == nil {
		return vectorstores.ErrEmptyFilter
	}

	opts := vectorstores.ParseOptions(options...)
	collectionName := s.getCollectionName(opts)

	wait := true
	_, err := s.client.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName,
		Wait:           &wait,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: qdrantFilter},
		},
	})
	if err != nil {
		if isNotFound(err) {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete documents by filter: %w", err)
	}

	s.logger.InfoContext(ctx, "Documents deleted by filter",
		"collection", collectionName, "filter_keys", slices.Sorted(maps.Keys(filters)))
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingCollectionName
	}

	_, err := s.client.GetCollectionsClient().Delete(ctx, &qdrant.DeleteCollection{CollectionName: name})
	if err != nil {
		if isNotFound(err) {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	s.logger.InfoContext(ctx, "Collection deleted", "name", name)
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]schema.CollectionInfo, error) {
	resp, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list qdrant collections: %w", err)
	}

	infos := make([]schema.CollectionInfo, 0, len(resp.GetCollections()))
	for _, col := range resp.GetCollections() {
		info, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{
			CollectionName: col.GetName(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to describe collection %s: %w", col.GetName(), err)
		}
		params := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams()
		infos = append(infos, schema.CollectionInfo{
			Name:           col.GetName(),
			PointsCount:    info.GetResult().GetPointsCount(),
			VectorSize:     params.GetSize(),
			VectorDistance: params.GetDistance().String(),
		})
	}
	return infos, nil
}

// Health reports whether the server answers.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.GetCollectionsClient().List(ctx, &qdrant.ListCollectionsRequest{}); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func (s *Store) getCollectionName(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.collectionName
}

func (s *Store) ensureCollection(ctx context.Context, collectionName string) error {
	_, err := s.client.GetCollectionsClient().Get(ctx, &qdrant.GetCollectionInfoRequest{
		CollectionName: collectionName,
	})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	dimension, err := s.embedder.GetDimension(ctx)
	if err != nil {
		return fmt.Errorf("could not get embedder dimension: %w", err)
	}

	s.logger.InfoContext(ctx, "Creating collection", "collection", collectionName, "dimension", dimension)
	_, err = s.client.GetCollectionsClient().Create(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(dimension),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}

	for _, field := range []string{"file_path", "chunk_type", "language"} {
		if err := s.createKeywordIndex(ctx, collectionName, field); err != nil {
			s.logger.WarnContext(ctx, "Could not index payload field", "field", field, "error", err)
		}
	}
	return nil
}

func (s *Store) createKeywordIndex(ctx context.Context, collectionName, field string) error {
	wait := true
	fieldType := qdrant.FieldType_FieldTypeKeyword
	_, err := s.client.GetPointsClient().CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: collectionName,
		Wait:           &wait,
		FieldName:      field,
		FieldType:      &fieldType,
	})
	return err
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func retryable(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Unknown:
		return true
	default:
		return false
	}
}
