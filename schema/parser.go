package schema

import (
	"io/fs"
)

// ParserPlugin splits the content of one file format into chunks.
type ParserPlugin interface {
	Name() string
	Extensions() []string
	CanHandle(path string, info fs.FileInfo) bool
	Chunk(content string, path string, opts *ChunkingOptions) ([]Chunk, error)
}

// ChunkingOptions carries the per-call budget. MaxUnits is measured in the
// estimator's units, not bytes.
type ChunkingOptions struct {
	MaxUnits int
}
