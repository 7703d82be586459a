package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

var headingPattern = regexp.MustCompile(`^#{1,6} `)

// headingName returns the heading text without its opening hashes or an
// optional closing sequence, so "## Title ##" and "## Title" share a name.
func headingName(line string) string {
	text := strings.TrimSpace(strings.TrimLeft(line, "#"))
	closed := strings.TrimRight(text, "#")
	switch {
	case closed == "":
		return ""
	case closed != text && strings.TrimRight(closed, " \t") != closed:
		return strings.TrimSpace(closed)
	default:
		return text
	}
}

// Chunk splits a Markdown document into sections that start at a heading.
// Sections over budget are re-split along blank-line paragraphs.
func (p *MarkdownPlugin) Chunk(content string, path string, opts *schema.ChunkingOptions) ([]schema.Chunk, error) {
	maxUnits := textsplitter.MaxUnits(opts)
	lines := textsplitter.SplitLines(content)

	// Headings inside code blocks or front matter are not section boundaries.
	ignored := p.codeBlockLines(content)
	fm, hasFrontMatter := p.parseFrontMatter(lines)
	if hasFrontMatter {
		for i := 0; i <= fm.end; i++ {
			ignored[i] = struct{}{}
		}
	}

	isHeading := func(i int) bool {
		if _, skip := ignored[i]; skip {
			return false
		}
		return headingPattern.MatchString(lines[i])
	}

	bounds := []int{0}
	for i := 1; i < len(lines); i++ {
		if isHeading(i) {
			bounds = append(bounds, i)
		}
	}
	bounds = append(bounds, len(lines))

	var chunks []schema.Chunk
	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]

		section, ok := textsplitter.TrimBlankLines(lines[from:to], from+1)
		if !ok {
			continue
		}

		var name string
		switch {
		case isHeading(from):
			name = headingName(lines[from])
		case from == 0 && hasFrontMatter:
			name = fm.title
		}

		if p.estimator.Estimate(section.Text) <= maxUnits {
			chunks = append(chunks, sectionChunk(section, name))
			continue
		}

		sectionLines := lines[section.StartLine-1 : section.EndLine]
		paragraphs := textsplitter.Paragraphs(sectionLines, section.StartLine)
		parts := textsplitter.Pack(sectionLines, section.StartLine, paragraphs, p.estimator, maxUnits)
		p.logger.Debug("Split oversized section", "section", name, "parts", len(parts))
		for _, part := range parts {
			chunks = append(chunks, sectionChunk(part, name))
		}
	}

	p.logger.Debug("Created chunks for Markdown file", "count", len(chunks), "path", path)
	for i, chunk := range chunks {
		p.logger.Debug("Chunk info",
			"index", i,
			"name", chunk.Name,
			"lines", fmt.Sprintf("%d-%d", chunk.StartLine, chunk.EndLine),
		)
	}

	return chunks, nil
}

func sectionChunk(span textsplitter.Span, name string) schema.Chunk {
	return schema.Chunk{
		Content:   span.Text,
		StartLine: span.StartLine,
		EndLine:   span.EndLine,
		Type:      schema.ChunkTypeMarkdownSection,
		Name:      name,
	}
}
