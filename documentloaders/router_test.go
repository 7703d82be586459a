package documentloaders_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repochunk/documentloaders"
	"github.com/sevigo/repochunk/fileregistry"
	"github.com/sevigo/repochunk/parsers"
	logger "github.com/sevigo/repochunk/parsers/testing"
	"github.com/sevigo/repochunk/schema"
)

const goSource = `package app

import "fmt"

// Greeter says hello.
type Greeter struct {
	Name string
}

func (g Greeter) Greet() {
	fmt.Println("hello", g.Name)
}
`

const markdownSource = "# Project\n\nSome intro.\n\n## Install\n\nRun make.\n"

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func newRouter(t *testing.T, root string, opts ...documentloaders.RouterOption) *documentloaders.Router {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log, nil)
	require.NoError(t, err)

	router, err := documentloaders.NewRouter(root, registry, append([]documentloaders.RouterOption{documentloaders.WithRouterLogger(log)}, opts...)...)
	require.NoError(t, err)
	return router
}

func TestRouter_ChunkFile_StampsFileContext(t *testing.T) {
	root := writeRepo(t, map[string]string{"pkg/app/greeter.go": goSource})
	router := newRouter(t, root)

	record := schema.FileRecord{Path: "pkg/app/greeter.go", Filename: "greeter.go", SHA256: "cafe", LineCount: 12}
	chunks, err := router.ChunkFile(context.Background(), record.Path, record)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for _, chunk := range chunks {
		assert.Equal(t, "pkg/app/greeter.go", chunk.FilePath)
		assert.Equal(t, "greeter.go", chunk.FileName)
		assert.Equal(t, ".go", chunk.FileExtension)
		assert.Equal(t, "go", chunk.Language)
		assert.Equal(t, record, chunk.OgMeta)
		assert.NoError(t, chunk.Validate())
	}

	assert.Equal(t, schema.ChunkTypeClass, chunks[0].Type)
	assert.Equal(t, "Greeter", chunks[0].Name)
	assert.Equal(t, schema.ChunkTypeFunction, chunks[1].Type)
	assert.Equal(t, "(Greeter) Greet", chunks[1].Name)
	assert.Equal(t, schema.ChunkTypeTopLevel, chunks[2].Type)

	again, err := router.ChunkFile(context.Background(), record.Path, record)
	require.NoError(t, err)
	assert.Equal(t, chunks, again)
}

func TestRouter_ChunkFile_Dispatch(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"README.md":       markdownSource,
		"data/list.json":  `[1, 2]`,
		"notes.rst":       "first paragraph\n\nsecond paragraph\n",
		"scripts/run.py":  "import os\nprint(os.getcwd())\n",
		"config/app.toml": "[server]\nport = 8080\n",
	})
	router := newRouter(t, root)

	tests := []struct {
		path     string
		want     schema.ChunkType
		language string
	}{
		{"README.md", schema.ChunkTypeMarkdownSection, "markdown"},
		{"data/list.json", schema.ChunkTypeJSONArrayItem, "json"},
		{"notes.rst", schema.ChunkTypeText, "restructuredtext"},
		{"scripts/run.py", schema.ChunkTypeLineBased, "python"},
		{"config/app.toml", schema.ChunkTypeText, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			chunks, err := router.ChunkFile(context.Background(), tt.path, schema.FileRecord{Path: tt.path})
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
			for _, chunk := range chunks {
				assert.Equal(t, tt.want, chunk.Type)
				assert.Equal(t, tt.language, chunk.Language)
			}
		})
	}
}

func TestRouter_ChunkFile_Skips(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"node_modules/dep/index.js": "module.exports = 1\n",
		"assets/logo.png":           "not really a png",
		"tools/blob.txt":            "looks like text",
		"empty.txt":                 "",
		"invalid.txt":               "bad \xff\xfe bytes",
		"big.txt":                   strings.Repeat("x", 64),
	})
	router := newRouter(t, root, documentloaders.WithMaxFileSize(32))
	ctx := context.Background()

	t.Run("excluded paths yield nothing", func(t *testing.T) {
		for _, path := range []string{"node_modules/dep/index.js", "assets/logo.png", "empty.txt"} {
			chunks, err := router.ChunkFile(ctx, path, schema.FileRecord{Path: path})
			assert.NoError(t, err, path)
			assert.Empty(t, chunks, path)
		}
	})

	t.Run("binary records yield nothing", func(t *testing.T) {
		chunks, err := router.ChunkFile(ctx, "tools/blob.txt", schema.FileRecord{Path: "tools/blob.txt", IsBinary: true})
		assert.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("unreadable files report per-file errors", func(t *testing.T) {
		chunks, err := router.ChunkFile(ctx, "missing.txt", schema.FileRecord{Path: "missing.txt"})
		assert.ErrorIs(t, err, documentloaders.ErrUnreadable)
		assert.Empty(t, chunks)

		chunks, err = router.ChunkFile(ctx, "invalid.txt", schema.FileRecord{Path: "invalid.txt"})
		assert.ErrorIs(t, err, documentloaders.ErrNotText)
		assert.Empty(t, chunks)

		chunks, err = router.ChunkFile(ctx, "big.txt", schema.FileRecord{Path: "big.txt"})
		assert.ErrorIs(t, err, documentloaders.ErrTooLarge)
		assert.Empty(t, chunks)
	})
}

func TestRouter_ChunkFile_ByteOrderMarks(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"utf8.txt":  "\xEF\xBB\xBFhello world",
		"utf16.txt": "\xFF\xFEh\x00i\x00",
	})
	router := newRouter(t, root)

	chunks, err := router.ChunkFile(context.Background(), "utf8.txt", schema.FileRecord{Path: "utf8.txt"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)

	chunks, err = router.ChunkFile(context.Background(), "utf16.txt", schema.FileRecord{Path: "utf16.txt"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hi", chunks[0].Content)
}

func TestRouter_ChunkDirectory(t *testing.T) {
	files := map[string]string{
		"main.go":      goSource,
		"README.md":    markdownSource,
		"notes.txt":    "alpha\n\nbeta\n",
		"bad.txt":      "\xfd\xfe\xff",
		"dist/out.js":  "var x = 1;\n",
		"src/index.ts": "export const x = 1;\n",
	}
	root := writeRepo(t, files)
	records := []schema.FileRecord{
		{Path: "README.md"},
		{Path: "missing.go"},
		{Path: "main.go"},
		{Path: "bad.txt"},
		{Path: "dist/out.js"},
		{Path: "notes.txt"},
		{Path: "src/index.ts"},
	}
	router := newRouter(t, root, documentloaders.WithConcurrency(3))
	ctx := context.Background()

	chunks, stats, err := router.ChunkDirectory(ctx, records)
	require.NoError(t, err)

	t.Run("concatenates in registry order", func(t *testing.T) {
		var order []string
		for _, chunk := range chunks {
			if len(order) == 0 || order[len(order)-1] != chunk.FilePath {
				order = append(order, chunk.FilePath)
			}
		}
		assert.Equal(t, []string{"README.md", "main.go", "notes.txt", "src/index.ts"}, order)
	})

	t.Run("collects failures without aborting", func(t *testing.T) {
		assert.Equal(t, 7, stats.Files)
		assert.Equal(t, 2, stats.Failed)
		assert.Equal(t, 1, stats.Skipped)
		assert.Equal(t, len(chunks), stats.Chunks)
		require.Len(t, stats.Errors, 2)
		assert.ErrorIs(t, stats.Errors[0], documentloaders.ErrUnreadable)
		assert.ErrorIs(t, stats.Errors[1], documentloaders.ErrNotText)
		assert.Equal(t, 2, stats.ByType[schema.ChunkTypeMarkdownSection])
	})

	t.Run("concurrent pass matches sequential pass", func(t *testing.T) {
		concurrent, concurrentStats, err := router.ChunkDirectoryConcurrent(ctx, records)
		require.NoError(t, err)
		assert.Equal(t, chunks, concurrent)
		assert.Equal(t, stats.Chunks, concurrentStats.Chunks)
		assert.Equal(t, stats.Failed, concurrentStats.Failed)
	})

	t.Run("every non-blank source line lands in a chunk", func(t *testing.T) {
		for _, path := range []string{"main.go", "README.md", "notes.txt", "src/index.ts"} {
			var contents strings.Builder
			for _, chunk := range chunks {
				if chunk.FilePath == path {
					contents.WriteString(chunk.Content + "\n")
				}
			}
			for _, line := range strings.Split(files[path], "\n") {
				if strings.TrimSpace(line) != "" {
					assert.Contains(t, contents.String(), line, "%s lost %q", path, line)
				}
			}
		}
	})
}

func TestRouter_ChunkDirectory_MissingRoot(t *testing.T) {
	router := newRouter(t, filepath.Join(t.TempDir(), "gone"))

	_, _, err := router.ChunkDirectory(context.Background(), []schema.FileRecord{{Path: "a.txt"}})
	assert.ErrorIs(t, err, fileregistry.ErrRootNotFound)

	_, _, err = router.ChunkDirectoryConcurrent(context.Background(), []schema.FileRecord{{Path: "a.txt"}})
	assert.ErrorIs(t, err, fileregistry.ErrRootNotFound)
}

func TestRouter_ChunkDirectory_Canceled(t *testing.T) {
	root := writeRepo(t, map[string]string{"a.txt": "a"})
	router := newRouter(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := router.ChunkDirectory(ctx, []schema.FileRecord{{Path: "a.txt"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// failingPlugin always fails to chunk.
type failingPlugin struct{}

func (failingPlugin) Name() string         { return "text" }
func (failingPlugin) Extensions() []string { return []string{".txt"} }
func (failingPlugin) CanHandle(string, fs.FileInfo) bool {
	return true
}
func (failingPlugin) Chunk(string, string, *schema.ChunkingOptions) ([]schema.Chunk, error) {
	return nil, errors.New("boom")
}

// failingRegistry routes every kind to failingPlugin.
type failingRegistry struct {
	parsers.ParserRegistry
}

func (failingRegistry) GetParserForKind(parsers.Kind) (schema.ParserPlugin, error) {
	return failingPlugin{}, nil
}

func TestRouter_SplitterFailureKeepsContent(t *testing.T) {
	files := map[string]string{
		"notes.txt":  "line one\nline two",
		"posix.txt":  "line one\nline two\n",
		"padded.txt": "line one\nline two\n\n",
	}
	root := writeRepo(t, files)
	log, _ := logger.NewTestLogger(t)

	router, err := documentloaders.NewRouter(root, failingRegistry{}, documentloaders.WithRouterLogger(log))
	require.NoError(t, err)

	for path, end := range map[string]int{"notes.txt": 2, "posix.txt": 2, "padded.txt": 3} {
		chunks, err := router.ChunkFile(context.Background(), path, schema.FileRecord{Path: path})
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, schema.ChunkTypeFullFile, chunks[0].Type)
		assert.Equal(t, files[path], chunks[0].Content)
		assert.Equal(t, end, chunks[0].EndLine, path)
	}
}

func TestNewRouter_Validation(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	registry, err := parsers.RegisterLanguagePlugins(log, nil)
	require.NoError(t, err)

	_, err = documentloaders.NewRouter(t.TempDir(), registry, documentloaders.WithMaxUnits(-1))
	assert.Error(t, err)

	_, err = documentloaders.NewRouter(t.TempDir(), nil)
	assert.Error(t, err)
}
