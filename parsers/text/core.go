package text

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// TextPlugin packs blank-line separated paragraphs of plain text into chunks.
type TextPlugin struct {
	logger    *slog.Logger
	estimator textsplitter.Estimator
}

// NewTextPlugin creates a new text file parser plugin
func NewTextPlugin(logger *slog.Logger, estimator textsplitter.Estimator) schema.ParserPlugin {
	if estimator == nil {
		estimator = textsplitter.DefaultEstimator()
	}
	return &TextPlugin{
		logger:    logger,
		estimator: estimator,
	}
}

func (p *TextPlugin) Name() string {
	return "text"
}

func (p *TextPlugin) Extensions() []string {
	return []string{".txt", ".text", ".log", ".rst"}
}

// CanHandle determines if this plugin can process the given file
func (p *TextPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}

	ext := strings.ToLower(filepath.Ext(path))
	if slices.Contains(p.Extensions(), ext) {
		return true
	}

	// Handle files without extensions that are likely text
	if ext == "" {
		baseName := strings.ToLower(filepath.Base(path))
		textFiles := []string{"readme", "license", "changelog", "authors", "contributors"}
		return slices.Contains(textFiles, baseName)
	}

	return false
}
