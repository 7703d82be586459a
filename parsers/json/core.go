package json

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// JSONPlugin splits JSON documents into one chunk per top-level key or element.
type JSONPlugin struct {
	logger *slog.Logger
}

// NewJSONPlugin creates a new JSON plugin. Records are never merged or split,
// so the estimator is unused.
func NewJSONPlugin(logger *slog.Logger, _ textsplitter.Estimator) schema.ParserPlugin {
	return &JSONPlugin{
		logger: logger,
	}
}

func (p *JSONPlugin) Name() string {
	return "json"
}

func (p *JSONPlugin) Extensions() []string {
	return []string{".json"}
}

func (p *JSONPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}

	return strings.EqualFold(filepath.Ext(path), ".json")
}
