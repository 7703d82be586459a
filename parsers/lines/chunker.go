package lines

import (
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// Chunk emits consecutive windows of max(10, budget/20) lines. Windows that
// hold only whitespace are dropped.
func (p *LinesPlugin) Chunk(content string, path string, opts *schema.ChunkingOptions) ([]schema.Chunk, error) {
	window := p.windowLines
	if window <= 0 {
		window = textsplitter.WindowLines(textsplitter.MaxUnits(opts))
	}

	lines := textsplitter.SplitLines(content)
	chunks := make([]schema.Chunk, 0, len(lines)/window+1)

	for from := 0; from < len(lines); from += window {
		to := min(from+window, len(lines)) - 1
		span := textsplitter.JoinLines(lines, from, to, 1)
		if strings.TrimSpace(span.Text) == "" {
			continue
		}
		chunks = append(chunks, schema.Chunk{
			Content:   span.Text,
			StartLine: span.StartLine,
			EndLine:   span.EndLine,
			Type:      schema.ChunkTypeLineBased,
		})
	}

	p.logger.Debug("Created line windows", "count", len(chunks), "window", window, "path", path)
	return chunks, nil
}
