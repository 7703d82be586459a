package text

import (
	"fmt"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// Chunk greedily packs paragraphs into text_chunk chunks within the budget.
// A paragraph larger than the budget becomes a chunk of its own.
func (p *TextPlugin) Chunk(content string, path string, opts *schema.ChunkingOptions) ([]schema.Chunk, error) {
	maxUnits := textsplitter.MaxUnits(opts)
	lines := textsplitter.SplitLines(content)

	paragraphs := textsplitter.Paragraphs(lines, 1)
	packed := textsplitter.Pack(lines, 1, paragraphs, p.estimator, maxUnits)

	chunks := make([]schema.Chunk, 0, len(packed))
	for _, span := range packed {
		chunks = append(chunks, schema.Chunk{
			Content:   span.Text,
			StartLine: span.StartLine,
			EndLine:   span.EndLine,
			Type:      schema.ChunkTypeText,
		})
	}

	p.logger.Debug("Created chunks for text file",
		"count", len(chunks),
		"paragraphs", len(paragraphs),
		"path", path,
	)
	for i, chunk := range chunks {
		p.logger.Debug("Chunk info", "index", i, "lines", fmt.Sprintf("%d-%d", chunk.StartLine, chunk.EndLine))
	}

	return chunks, nil
}
