package lines

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// codeExtensions lists source languages without a structural splitter.
var codeExtensions = []string{
	".py", ".js", ".jsx", ".mjs", ".ts", ".tsx", ".java", ".kt", ".scala",
	".rs", ".rb", ".php", ".c", ".cc", ".cpp", ".h", ".hpp", ".cs", ".swift", ".sh",
}

// LinesPlugin cuts files into fixed, non-overlapping line windows.
type LinesPlugin struct {
	logger      *slog.Logger
	windowLines int
}

// Option configures a LinesPlugin.
type Option func(*LinesPlugin)

// WithWindowLines fixes the window size instead of deriving it from the budget.
func WithWindowLines(n int) Option {
	return func(p *LinesPlugin) {
		if n > 0 {
			p.windowLines = n
		}
	}
}

// NewLinesPlugin creates the line window plugin. Windows are sized in lines,
// so the estimator is unused.
func NewLinesPlugin(logger *slog.Logger, _ textsplitter.Estimator, opts ...Option) schema.ParserPlugin {
	p := &LinesPlugin{logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *LinesPlugin) Name() string {
	return "lines"
}

func (p *LinesPlugin) Extensions() []string {
	return CodeExtensions()
}

// CodeExtensions returns the extensions routed to line windows.
func CodeExtensions() []string {
	return slices.Clone(codeExtensions)
}

func (p *LinesPlugin) CanHandle(path string, info fs.FileInfo) bool {
	if info != nil && info.IsDir() {
		return false
	}
	return slices.Contains(codeExtensions, strings.ToLower(filepath.Ext(path)))
}
