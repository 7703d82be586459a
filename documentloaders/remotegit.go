package documentloaders

import (
	"context"
	"log/slog"

	"github.com/sevigo/repochunk/gitutil"
	"github.com/sevigo/repochunk/parsers"
	"github.com/sevigo/repochunk/schema"
)

// RemoteGitRepoLoader clones a repository into a temporary directory and
// loads it with a GitLoader.
type RemoteGitRepoLoader struct {
	RepoURL        string
	ParserRegistry parsers.ParserRegistry
	Logger         *slog.Logger
	Options        []GitLoaderOption
}

func NewRemoteGitRepoLoader(repoURL string, registry parsers.ParserRegistry, logger *slog.Logger, opts ...GitLoaderOption) *RemoteGitRepoLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteGitRepoLoader{
		RepoURL:        repoURL,
		ParserRegistry: registry,
		Logger:         logger,
		Options:        opts,
	}
}

func (l *RemoteGitRepoLoader) Load(ctx context.Context) ([]schema.Document, error) {
	cloner := gitutil.NewCloner(l.Logger)
	tempPath, cleanup, err := cloner.Clone(ctx, l.RepoURL)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	opts := append([]GitLoaderOption{WithLogger(l.Logger)}, l.Options...)
	documents, err := NewGit(tempPath, l.ParserRegistry, opts...).Load(ctx)
	if err != nil {
		return nil, err
	}

	for i := range documents {
		documents[i].Metadata["original_source_url"] = l.RepoURL
	}

	return documents, nil
}
