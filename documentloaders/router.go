package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sevigo/repochunk/fileregistry"
	"github.com/sevigo/repochunk/parsers"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

const (
	defaultMaxFileSize = 10 * 1024 * 1024 // 10MB
	defaultConcurrency = 4
	unknownLanguage    = "unknown"
)

var (
	// ErrUnreadable marks a file that could not be opened or read.
	ErrUnreadable = errors.New("file is unreadable")
	// ErrNotText marks a file whose bytes are not UTF-8 text.
	ErrNotText = errors.New("file is not UTF-8 text")
	// ErrTooLarge marks a file above the configured size limit.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// Router classifies files, dispatches each to exactly one splitter and stamps
// file context onto the resulting chunks.
type Router struct {
	root        string
	registry    parsers.ParserRegistry
	logger      *slog.Logger
	options     schema.ChunkingOptions
	maxFileSize int64
	concurrency int
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets a custom logger for the Router.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMaxUnits sets the chunk budget handed to every splitter.
func WithMaxUnits(units int) RouterOption {
	return func(r *Router) {
		r.options.MaxUnits = units
	}
}

// WithMaxFileSize skips files larger than size bytes.
func WithMaxFileSize(size int64) RouterOption {
	return func(r *Router) {
		if size > 0 {
			r.maxFileSize = size
		}
	}
}

// WithConcurrency bounds the workers of ChunkDirectoryConcurrent.
func WithConcurrency(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRouter creates a router for the checkout at root. Relative file paths are
// resolved against root.
func NewRouter(root string, registry parsers.ParserRegistry, opts ...RouterOption) (*Router, error) {
	r := &Router{
		root:        root,
		registry:    registry,
		logger:      slog.Default(),
		options:     schema.ChunkingOptions{MaxUnits: textsplitter.DefaultMaxUnits},
		maxFileSize: defaultMaxFileSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "chunk_router")

	if registry == nil {
		return nil, errors.New("router requires a parser registry")
	}
	if err := textsplitter.ValidateChunkingOptions(&r.options); err != nil {
		return nil, err
	}
	return r, nil
}

// Stats summarizes a directory pass.
type Stats struct {
	Files   int
	Skipped int
	Failed  int
	Chunks  int
	ByType  map[schema.ChunkType]int
	Errors  []error
}

func (s *Stats) add(chunks []schema.Chunk, skipped bool, err error) {
	s.Files++
	switch {
	case err != nil:
		s.Failed++
		s.Errors = append(s.Errors, err)
	case skipped:
		s.Skipped++
	}
	if s.ByType == nil {
		s.ByType = make(map[schema.ChunkType]int)
	}
	for _, chunk := range chunks {
		s.ByType[chunk.Type]++
	}
	s.Chunks += len(chunks)
}

// ChunkFile chunks one file. path locates the file on disk, relative paths
// being resolved against the router root; record is the file's registry entry.
// Excluded files yield no chunks and no error. Unreadable or non-text files
// yield no chunks and an error wrapping ErrUnreadable, ErrNotText or
// ErrTooLarge; callers treat those as per-file, non-fatal failures.
func (r *Router) ChunkFile(ctx context.Context, path string, record schema.FileRecord) ([]schema.Chunk, error) {
	chunks, _, err := r.chunkFile(ctx, path, record)
	return chunks, err
}

func (r *Router) chunkFile(ctx context.Context, path string, record schema.FileRecord) ([]schema.Chunk, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	relPath := record.Path
	if relPath == "" {
		relPath = r.relative(path)
	}

	if fileregistry.SkipPath(relPath) {
		r.logger.Debug("Skipping excluded file", "path", relPath)
		return nil, true, nil
	}
	if record.IsBinary {
		r.logger.Debug("Skipping binary file", "path", relPath)
		return nil, true, nil
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}

	content, err := r.readText(path)
	if err != nil {
		r.logger.Warn("Cannot read file, skipping", "path", relPath, "error", err)
		return nil, false, fmt.Errorf("%s: %w", relPath, err)
	}
	if content == "" {
		r.logger.Debug("Skipping empty file", "path", relPath)
		return nil, true, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	kind := parsers.KindForExtension(ext)

	chunks, err := r.split(kind, content, relPath)
	if err != nil {
		return nil, false, err
	}

	language := detectLanguage(ext)
	fileName := filepath.Base(path)
	for i := range chunks {
		chunks[i].FilePath = relPath
		chunks[i].FileName = fileName
		chunks[i].FileExtension = ext
		chunks[i].Language = language
		chunks[i].OgMeta = record
	}

	r.logger.Debug("File chunked", "path", relPath, "kind", kind, "chunks", len(chunks))
	return chunks, false, nil
}

// split runs the splitter for kind. A failing splitter degrades to a single
// full_file chunk so read content is never dropped.
func (r *Router) split(kind parsers.Kind, content, path string) ([]schema.Chunk, error) {
	plugin, err := r.registry.GetParserForKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	opts := r.options
	chunks, err := plugin.Chunk(content, path, &opts)
	if err == nil {
		return chunks, nil
	}

	r.logger.Warn("Splitter failed, keeping file whole",
		"path", path,
		"plugin", plugin.Name(),
		"error", err,
	)
	return []schema.Chunk{{
		Content:   content,
		StartLine: 1,
		EndLine:   textsplitter.CountLines(content),
		Type:      schema.ChunkTypeFullFile,
	}}, nil
}

// readText reads a whole file and decodes it to UTF-8, honoring a leading
// byte order mark.
func (r *Router) readText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if info.Size() > r.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, info.Size())
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return decodeText(data)
}

func decodeText(data []byte) (string, error) {
	decoded, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotText, err)
	}
	if !utf8.Valid(decoded) {
		return "", ErrNotText
	}
	return string(decoded), nil
}

func (r *Router) relative(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// ChunkDirectory chunks every registry entry in order and concatenates the
// results. Per-file failures are logged and counted in Stats; only a missing
// root or a canceled context aborts the pass.
func (r *Router) ChunkDirectory(ctx context.Context, records []schema.FileRecord) ([]schema.Chunk, Stats, error) {
	var stats Stats
	if err := fileregistry.CheckRoot(r.root); err != nil {
		return nil, stats, err
	}

	r.logger.Info("Chunking repository", "root", r.root, "files", len(records))

	var chunks []schema.Chunk
	for _, record := range records {
		fileChunks, skipped, err := r.chunkFile(ctx, record.Path, record)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, stats, ctxErr
		}
		stats.add(fileChunks, skipped, err)
		chunks = append(chunks, fileChunks...)
	}

	r.logSummary(stats)
	return chunks, stats, nil
}

// ChunkDirectoryConcurrent is ChunkDirectory with files processed by a bounded
// worker pool. Output order matches the sequential pass.
func (r *Router) ChunkDirectoryConcurrent(ctx context.Context, records []schema.FileRecord) ([]schema.Chunk, Stats, error) {
	var stats Stats
	if err := fileregistry.CheckRoot(r.root); err != nil {
		return nil, stats, err
	}

	r.logger.Info("Chunking repository", "root", r.root, "files", len(records), "workers", r.concurrency)

	type result struct {
		chunks  []schema.Chunk
		skipped bool
		err     error
	}
	results := make([]result, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, record := range records {
		g.Go(func() error {
			chunks, skipped, err := r.chunkFile(gctx, record.Path, record)
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			results[i] = result{chunks: chunks, skipped: skipped, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	var chunks []schema.Chunk
	for _, res := range results {
		stats.add(res.chunks, res.skipped, res.err)
		chunks = append(chunks, res.chunks...)
	}

	r.logSummary(stats)
	return chunks, stats, nil
}

func (r *Router) logSummary(stats Stats) {
	r.logger.Info("Repository chunking completed",
		"files", stats.Files,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"chunks", stats.Chunks,
	)
}

// detectLanguage names the language of a file extension, "unknown" when the
// extension is not recognized.
func detectLanguage(ext string) string {
	if lang, ok := fileregistry.Language(ext); ok {
		return lang
	}
	return unknownLanguage
}
