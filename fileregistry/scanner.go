// Package fileregistry enumerates a repository checkout and describes every
// file with the record the chunk router consumes.
package fileregistry

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/repochunk/schema"
)

const (
	binarySampleSize   = 1024
	binaryThreshold    = 0.30
	defaultConcurrency = 8
)

// ErrRootNotFound is returned when the repository root does not exist or is
// not a directory.
var ErrRootNotFound = errors.New("repository root not found")

// Scanner walks a checkout and builds its file registry.
type Scanner struct {
	logger      *slog.Logger
	concurrency int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets a custom logger for the Scanner.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithConcurrency bounds how many files are hashed in parallel.
func WithConcurrency(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "file_registry")
	return s
}

// CheckRoot verifies that root is an existing directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRootNotFound, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, root)
	}
	return nil
}

// Scan walks root, pruning excluded directories, and returns one record per
// regular file in walk order. Files that cannot be read are recorded as binary.
func (s *Scanner) Scan(ctx context.Context, root string) ([]schema.FileRecord, error) {
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	s.logger.Info("Scanning repository", "root", root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			s.logger.Warn("Skipping unreadable path", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != root && SkipDir(d.Name()) {
				s.logger.Debug("Skipping excluded directory", "dir", d.Name(), "path", path)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			s.logger.Warn("Could not get relative path, skipping", "path", path, "error", err)
			return nil
		}
		if rel == MetadataFile {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	records := make([]schema.FileRecord, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, rel := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record, err := Describe(root, rel)
			if err != nil {
				s.logger.Warn("Could not describe file, marking as binary", "path", rel, "error", err)
				record = schema.FileRecord{
					Path:     filepath.ToSlash(rel),
					Filename: filepath.Base(rel),
					IsBinary: true,
				}
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	s.logger.Info("Repository scan completed", "root", root, "files", len(records))
	return records, nil
}

// Describe builds the record of one file, addressed relative to root, in a
// single read pass.
func Describe(root, rel string) (schema.FileRecord, error) {
	f, err := os.Open(filepath.Join(root, rel))
	if err != nil {
		return schema.FileRecord{}, fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	hash := sha256.New()
	var stats contentStats
	if _, err := io.Copy(io.MultiWriter(hash, &stats), f); err != nil {
		return schema.FileRecord{}, fmt.Errorf("read %s: %w", rel, err)
	}

	language, _ := Language(filepath.Ext(rel))
	return schema.FileRecord{
		Path:      filepath.ToSlash(rel),
		Filename:  filepath.Base(rel),
		SHA256:    hex.EncodeToString(hash.Sum(nil)),
		IsBinary:  IsBinary(stats.sample),
		Language:  language,
		LineCount: stats.lineCount(),
	}, nil
}

// contentStats counts lines and keeps the leading sample of a stream.
type contentStats struct {
	sample   []byte
	newlines int
	size     int64
	last     byte
}

func (c *contentStats) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if room := binarySampleSize - len(c.sample); room > 0 {
		c.sample = append(c.sample, p[:min(room, len(p))]...)
	}
	c.newlines += bytes.Count(p, []byte{'\n'})
	c.size += int64(len(p))
	c.last = p[len(p)-1]
	return len(p), nil
}

// lineCount counts newline-terminated lines plus an unterminated final line.
func (c *contentStats) lineCount() int {
	if c.size > 0 && c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}
