package gitutil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// ErrDestinationNotEmpty is returned by CloneTo when dest already has content.
var ErrDestinationNotEmpty = errors.New("clone destination is not empty")

// Cloner checks out remote Git repositories with a shallow clone.
type Cloner struct {
	Logger *slog.Logger
}

// NewCloner creates a new Cloner.
func NewCloner(logger *slog.Logger) *Cloner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cloner{Logger: logger}
}

// Clone checks out a remote repository to a temporary local directory. The
// returned cleanup function removes it.
func (c *Cloner) Clone(ctx context.Context, repoURL string) (string, func(), error) {
	tempPath, err := os.MkdirTemp("", "repochunk-repo-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	cleanupFunc := func() {
		c.Logger.Info("Cleaning up temporary repository", "path", tempPath)
		_ = os.RemoveAll(tempPath)
	}

	if err := c.clone(ctx, repoURL, tempPath); err != nil {
		cleanupFunc()
		return "", nil, err
	}
	return tempPath, cleanupFunc, nil
}

// CloneTo checks out a remote repository into dest, which must be missing or
// empty. The checkout is kept for later ingestion runs.
func (c *Cloner) CloneTo(ctx context.Context, repoURL, dest string) error {
	entries, err := os.ReadDir(dest)
	switch {
	case err == nil && len(entries) > 0:
		return fmt.Errorf("%w: %s", ErrDestinationNotEmpty, dest)
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("failed to inspect %s: %w", dest, err)
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	return c.clone(ctx, repoURL, dest)
}

func (c *Cloner) clone(ctx context.Context, repoURL, dest string) error {
	c.Logger.InfoContext(ctx, "Cloning repository", "url", repoURL, "path", dest)

	_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{
		URL:   repoURL,
		Depth: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repo '%s': %w", repoURL, err)
	}

	c.Logger.InfoContext(ctx, "Repository cloned successfully", "path", dest)
	return nil
}
