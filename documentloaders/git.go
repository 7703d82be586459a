// Package documentloaders turns repository checkouts into chunks and
// storage-ready documents.
package documentloaders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sevigo/repochunk/fileregistry"
	"github.com/sevigo/repochunk/parsers"
	"github.com/sevigo/repochunk/schema"
)

// Loader defines the interface for loading documents from various sources.
type Loader interface {
	// Load retrieves documents from the source. The context can be used for
	// cancellation during the loading process.
	Load(ctx context.Context) ([]schema.Document, error)
}

// GitLoader loads a repository checkout on the local file system.
//
// The loader:
//   - reads the file registry from metadata.json when present, otherwise scans the checkout
//   - routes every registry entry through a Router
//   - converts each chunk into a schema.Document whose metadata is the chunk minus its content
type GitLoader struct {
	// path is the root directory of the checkout
	path string

	parserRegistry parsers.ParserRegistry
	registryFile   string
	scanOptions    []fileregistry.Option
	routerOptions  []RouterOption
	concurrent     bool
	logger         *slog.Logger
}

// GitLoaderOption defines functional options for configuring GitLoader.
type GitLoaderOption func(*GitLoader)

// WithLogger sets a custom logger for the GitLoader.
// If not provided, slog.Default() will be used.
func WithLogger(logger *slog.Logger) GitLoaderOption {
	return func(g *GitLoader) {
		g.logger = logger
	}
}

// WithRegistryFile reads the file registry from path instead of scanning.
func WithRegistryFile(path string) GitLoaderOption {
	return func(g *GitLoader) {
		g.registryFile = path
	}
}

// WithScanOptions configures the scanner used when no registry file exists.
func WithScanOptions(opts ...fileregistry.Option) GitLoaderOption {
	return func(g *GitLoader) {
		g.scanOptions = append(g.scanOptions, opts...)
	}
}

// WithRouterOptions configures the router used by Load.
func WithRouterOptions(opts ...RouterOption) GitLoaderOption {
	return func(g *GitLoader) {
		g.routerOptions = append(g.routerOptions, opts...)
	}
}

// WithConcurrentChunking chunks files with a worker pool.
func WithConcurrentChunking() GitLoaderOption {
	return func(g *GitLoader) {
		g.concurrent = true
	}
}

// NewGit creates a new loader for the checkout at path.
func NewGit(path string, registry parsers.ParserRegistry, opts ...GitLoaderOption) *GitLoader {
	loader := &GitLoader{
		path:           path,
		parserRegistry: registry,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(loader)
	}

	return loader
}

// Records returns the file registry of the checkout: the configured registry
// file, else metadata.json in the checkout root, else a fresh scan.
func (g *GitLoader) Records(ctx context.Context) ([]schema.FileRecord, error) {
	registryFile := g.registryFile
	if registryFile == "" {
		candidate := filepath.Join(g.path, fileregistry.MetadataFile)
		if _, err := os.Stat(candidate); err == nil {
			registryFile = candidate
		}
	}

	if registryFile != "" {
		g.logger.Debug("Loading file registry", "path", registryFile)
		return fileregistry.Load(registryFile)
	}

	opts := append([]fileregistry.Option{fileregistry.WithLogger(g.logger)}, g.scanOptions...)
	scanner := fileregistry.NewScanner(opts...)
	return scanner.Scan(ctx, g.path)
}

// LoadChunks returns every chunk of the checkout in registry order.
func (g *GitLoader) LoadChunks(ctx context.Context) ([]schema.Chunk, error) {
	g.logger.Info("Starting git repository load", "path", g.path)

	if err := fileregistry.CheckRoot(g.path); err != nil {
		return nil, err
	}

	records, err := g.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("build file registry: %w", err)
	}

	opts := append([]RouterOption{WithRouterLogger(g.logger)}, g.routerOptions...)
	router, err := NewRouter(g.path, g.parserRegistry, opts...)
	if err != nil {
		return nil, err
	}

	chunkDirectory := router.ChunkDirectory
	if g.concurrent {
		chunkDirectory = router.ChunkDirectoryConcurrent
	}

	chunks, stats, err := chunkDirectory(ctx, records)
	if err != nil {
		g.logger.Error("Repository chunking failed", "error", err)
		return nil, err
	}
	if stats.Failed > 0 {
		g.logger.Warn("Some files could not be chunked",
			"failed", stats.Failed,
			"error", errors.Join(stats.Errors...),
		)
	}

	return chunks, nil
}

// Load returns one document per chunk.
func (g *GitLoader) Load(ctx context.Context) ([]schema.Document, error) {
	chunks, err := g.LoadChunks(ctx)
	if err != nil {
		return nil, err
	}

	documents := make([]schema.Document, 0, len(chunks))
	for _, chunk := range chunks {
		documents = append(documents, chunk.Document())
	}

	g.logger.Info("Git repository load completed",
		"path", g.path,
		"total_documents", len(documents),
	)
	return documents, nil
}
