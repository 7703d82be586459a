package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// frontMatter is a leading YAML block delimited by "---" lines.
type frontMatter struct {
	end   int // 0-based index of the closing separator
	title string
}

// parseFrontMatter detects a front matter block at the top of the document.
func (p *MarkdownPlugin) parseFrontMatter(lines []string) (frontMatter, bool) {
	if len(lines) < 3 || lines[0] != frontMatterSeparator {
		return frontMatter{}, false
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if lines[i] == frontMatterSeparator {
			end = i
			break
		}
	}
	if end <= 1 {
		p.logger.Debug("Invalid frontmatter structure - no closing separator found")
		return frontMatter{}, false
	}

	fm := frontMatter{end: end}

	var properties map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[1:end], "\n")), &properties); err != nil {
		p.logger.Debug("Failed to parse YAML frontmatter", "error", err)
		return fm, true
	}
	if title, ok := properties["title"]; ok && title != nil {
		fm.title = strings.TrimSpace(fmt.Sprintf("%v", title))
	}
	return fm, true
}

// codeBlockLines returns the 0-based indexes of every line that belongs to the
// body of a fenced or indented code block.
func (p *MarkdownPlugin) codeBlockLines(content string) map[int]struct{} {
	source := []byte(content)
	lineStarts := []int{0}
	for i, b := range source {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	lineOf := func(offset int) int {
		return sort.SearchInts(lineStarts, offset+1) - 1
	}

	lines := make(map[int]struct{})
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() != ast.KindFencedCodeBlock && node.Kind() != ast.KindCodeBlock {
			return ast.WalkContinue, nil
		}

		segments := node.Lines()
		for i := 0; i < segments.Len(); i++ {
			segment := segments.At(i)
			for line := lineOf(segment.Start); line <= lineOf(max(segment.Start, segment.Stop-1)); line++ {
				lines[line] = struct{}{}
			}
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		p.logger.Debug("Failed to walk markdown AST", "error", err)
	}

	return lines
}
