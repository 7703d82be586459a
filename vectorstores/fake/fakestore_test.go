package fake_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fakeembedder "github.com/sevigo/repochunk/embeddings/fake"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/vectorstores"
	"github.com/sevigo/repochunk/vectorstores/fake"
)

func testChunks() []schema.Chunk {
	return []schema.Chunk{
		{Content: "func ParseConfig(path string) (*Config, error)", StartLine: 1, EndLine: 3,
			Type: schema.ChunkTypeFunction, Name: "ParseConfig", FilePath: "config/config.go"},
		{Content: "type Server struct { addr string }", StartLine: 5, EndLine: 7,
			Type: schema.ChunkTypeClass, Name: "Server", FilePath: "server/server.go"},
		{Content: "# Install\n\nRun make install", StartLine: 1, EndLine: 3,
			Type: schema.ChunkTypeMarkdownSection, Name: "Install", FilePath: "README.md"},
	}
}

func TestStore_SearchRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	store := fake.New(fakeembedder.New(256))

	ids, err := vectorstores.AddChunks(ctx, store, testChunks())
	require.NoError(t, err)
	require.Len(t, ids, 3)
	assert.Equal(t, vectorstores.ChunkID("config/config.go", 1, 3), ids[0])

	results, err := store.SimilaritySearchWithScores(ctx, "parse config path string", 2)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "ParseConfig", results[0].Document.Metadata["name"])
	assert.Greater(t, results[0].Score, float32(0))

	docs, err := store.SimilaritySearch(ctx, "parse config", 5, vectorstores.WithChunkType(schema.ChunkTypeMarkdownSection))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "README.md", docs[0].Metadata["file_path"])
}

func TestStore_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := fake.New(fakeembedder.New(0))

	_, err := vectorstores.AddChunks(ctx, store, testChunks())
	require.NoError(t, err)
	_, err = vectorstores.AddChunks(ctx, store, testChunks())
	require.NoError(t, err)
	assert.Len(t, store.Docs(), 3)

	replacement := []schema.Chunk{{Content: "# Setup\n\nUse go install", StartLine: 1, EndLine: 3,
		Type: schema.ChunkTypeMarkdownSection, Name: "Setup", FilePath: "README.md"}}
	_, err = vectorstores.ReplaceFile(ctx, store, "README.md", replacement)
	require.NoError(t, err)

	docs := store.Docs()
	require.Len(t, docs, 3)
	assert.Equal(t, "Setup", docs[2].Metadata["name"])
}

func TestStore_Collections(t *testing.T) {
	ctx := context.Background()
	store := fake.New(fakeembedder.New(8))

	_, err := vectorstores.AddChunks(ctx, store, testChunks(), vectorstores.WithNameSpace("repo-a"))
	require.NoError(t, err)

	infos, err := store.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "repo-a", infos[0].Name)
	assert.Equal(t, uint64(3), infos[0].PointsCount)
	assert.Equal(t, uint64(8), infos[0].VectorSize)

	_, err = store.SimilaritySearch(ctx, "server", 1)
	assert.ErrorIs(t, err, vectorstores.ErrCollectionNotFound)

	err = store.DeleteDocumentsByFilter(ctx, nil, vectorstores.WithNameSpace("repo-a"))
	assert.ErrorIs(t, err, vectorstores.ErrEmptyFilter)

	require.NoError(t, store.DeleteCollection(ctx, "repo-a"))
	assert.ErrorIs(t, store.DeleteCollection(ctx, "repo-a"), vectorstores.ErrCollectionNotFound)
}
