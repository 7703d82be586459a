package vectorstores

import (
	"context"

	"github.com/sevigo/repochunk/schema"
)

// Retriever is the interface for fetching relevant documents for a query.
type Retriever interface {
	GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error)
}

type retrieverImpl struct {
	vectorStore VectorStore
	numDocs     int
	options     []Option
}

// GetRelevantDocuments retrieves documents from the vector store.
func (r retrieverImpl) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.vectorStore.SimilaritySearch(ctx, query, r.numDocs, r.options...)
}

// ToRetriever creates a retriever from a vector store. The options apply to
// every search.
func ToRetriever(vectorStore VectorStore, numDocs int, options ...Option) Retriever {
	return retrieverImpl{
		vectorStore: vectorStore,
		numDocs:     numDocs,
		options:     options,
	}
}
