package golang

import (
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// continuedMarker separates the repeated type header from the members of a
// follow-up part when an oversized type is split.
const continuedMarker = "\t// ... (continued)"

// GoPlugin splits Go source along its top-level declarations.
type GoPlugin struct {
	logger    *slog.Logger
	estimator textsplitter.Estimator
}

func NewGoPlugin(logger *slog.Logger, estimator textsplitter.Estimator) schema.ParserPlugin {
	if estimator == nil {
		estimator = textsplitter.DefaultEstimator()
	}
	return &GoPlugin{
		logger:    logger,
		estimator: estimator,
	}
}

func (p *GoPlugin) Name() string {
	return "go"
}

func (p *GoPlugin) Extensions() []string {
	return []string{".go"}
}

func (p *GoPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return filepath.Ext(path) == ".go"
}
