package markdown

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const frontMatterSeparator = "---"

// MarkdownPlugin splits Markdown documents at heading boundaries.
type MarkdownPlugin struct {
	logger    *slog.Logger
	estimator textsplitter.Estimator
	markdown  goldmark.Markdown
}

// NewMarkdownPlugin creates a new Markdown plugin backed by goldmark.
func NewMarkdownPlugin(logger *slog.Logger, estimator textsplitter.Estimator) schema.ParserPlugin {
	if estimator == nil {
		estimator = textsplitter.DefaultEstimator()
	}
	return &MarkdownPlugin{
		logger:    logger,
		estimator: estimator,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

func (p *MarkdownPlugin) Name() string {
	return "markdown"
}

func (p *MarkdownPlugin) Extensions() []string {
	return []string{".md", ".markdown"}
}

// CanHandle determines if this plugin can process the given file
func (p *MarkdownPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
