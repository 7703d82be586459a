package documentloaders_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repochunk/documentloaders"
	"github.com/sevigo/repochunk/fileregistry"
	"github.com/sevigo/repochunk/parsers"
	logger "github.com/sevigo/repochunk/parsers/testing"
	"github.com/sevigo/repochunk/schema"
)

// materialize mirrors an in-memory file system into a temporary directory.
func materialize(t *testing.T, mockFS fstest.MapFS) string {
	t.Helper()
	tempDir := t.TempDir()
	err := fs.WalkDir(mockFS, ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		targetPath := filepath.Join(tempDir, path)
		if d.IsDir() {
			return os.MkdirAll(targetPath, 0o755)
		}
		data, readErr := mockFS.ReadFile(path)
		require.NoError(t, readErr)
		return os.WriteFile(targetPath, data, 0o644)
	})
	require.NoError(t, err)
	return tempDir
}

func TestGitLoader_Load(t *testing.T) {
	tempDir := materialize(t, fstest.MapFS{
		"src/main.go":     {Data: []byte("package main\n\nfunc main() {}\n\nfunc helper() {}")},
		"README.txt":      {Data: []byte("This is a test README.")},
		"assets/logo.png": {Data: []byte("binary data")},
		".git/config":     {Data: []byte("some config")},
		"empty_dir":       {Mode: fs.ModeDir},
	})

	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log, nil)
	require.NoError(t, err)

	loader := documentloaders.NewGit(tempDir, registry, documentloaders.WithLogger(log))
	docs, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 4)

	found := make(map[string]schema.Document)
	for _, doc := range docs {
		source, ok := doc.Metadata["file_path"].(string)
		require.True(t, ok, "Document metadata must have a 'file_path' key")
		assert.NotContains(t, doc.Metadata, "content")

		name, _ := doc.Metadata["name"].(string)
		found[source+"#"+name] = doc
	}

	main := found["src/main.go#main"]
	assert.Equal(t, "func main() {}", main.PageContent)
	assert.Equal(t, "function", main.Metadata["chunk_type"])
	assert.Equal(t, 3, main.Metadata["start_line"])

	helper := found["src/main.go#helper"]
	assert.Equal(t, "func helper() {}", helper.PageContent)
	assert.Equal(t, 5, helper.Metadata["end_line"])

	residual := found["src/main.go#"]
	assert.Equal(t, "top_level", residual.Metadata["chunk_type"])

	readme := found["README.txt#"]
	assert.Equal(t, "This is a test README.", readme.PageContent)
	assert.Equal(t, "text_chunk", readme.Metadata["chunk_type"])
	assert.Equal(t, "text", readme.Metadata["language"])

	ogMeta, ok := readme.Metadata["og_meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "README.txt", ogMeta["path"])
	assert.NotEmpty(t, ogMeta["sha256"])
}

func TestGitLoader_UsesRegistryFile(t *testing.T) {
	tempDir := materialize(t, fstest.MapFS{
		"a.txt": {Data: []byte("listed")},
		"b.txt": {Data: []byte("not listed")},
	})
	require.NoError(t, fileregistry.Save(filepath.Join(tempDir, fileregistry.MetadataFile), []schema.FileRecord{
		{Path: "a.txt", Extra: map[string]any{"team": "docs"}},
	}))

	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log, nil)
	require.NoError(t, err)

	loader := documentloaders.NewGit(tempDir, registry,
		documentloaders.WithLogger(log),
		documentloaders.WithConcurrentChunking(),
		documentloaders.WithRouterOptions(documentloaders.WithMaxUnits(100)),
	)
	chunks, err := loader.LoadChunks(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "listed", chunks[0].Content)
	assert.Equal(t, "docs", chunks[0].OgMeta.Extra["team"])
}

func TestGitLoader_MissingRoot(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log, nil)
	require.NoError(t, err)

	loader := documentloaders.NewGit(filepath.Join(t.TempDir(), "nope"), registry, documentloaders.WithLogger(log))
	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, fileregistry.ErrRootNotFound)
}
