package golang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

// lineRange is a 0-based half-open range of source lines.
type lineRange struct {
	start, end int
}

// coverage records the lines consumed by emitted declarations, in source order.
type coverage []lineRange

// add marks the 1-based inclusive lines first..last as covered.
func (c *coverage) add(first, last int) {
	*c = append(*c, lineRange{start: first - 1, end: last})
}

// lastLine returns the 1-based number of the last covered line, 0 if none.
func (c coverage) lastLine() int {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].end
}

// complement returns the uncovered ranges of [0, total).
func (c coverage) complement(total int) []lineRange {
	var out []lineRange
	next := 0
	for _, r := range c {
		if r.start > next {
			out = append(out, lineRange{start: next, end: r.start})
		}
		next = max(next, r.end)
	}
	if next < total {
		out = append(out, lineRange{start: next, end: total})
	}
	return out
}

// Chunk breaks Go code into one chunk per top-level function or type
// declaration plus a residual chunk for everything else. Unparsable input
// degrades to a single full_file chunk.
func (p *GoPlugin) Chunk(content string, path string, opts *schema.ChunkingOptions) ([]schema.Chunk, error) {
	maxUnits := textsplitter.MaxUnits(opts)
	lines := textsplitter.SplitLines(content)

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil {
		p.logger.Debug("Go parse failed, keeping file whole", "path", path, "error", err)
		return []schema.Chunk{{
			Content:   content,
			StartLine: 1,
			EndLine:   len(lines),
			Type:      schema.ChunkTypeFullFile,
		}}, nil
	}

	var chunks []schema.Chunk
	var covered coverage

	for _, decl := range file.Decls {
		var doc *ast.CommentGroup
		switch d := decl.(type) {
		case *ast.FuncDecl:
			doc = d.Doc
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			doc = d.Doc
		default:
			continue
		}

		start, end := declLines(fset, doc, decl)
		// Several declarations on one line stay with the first one.
		if end <= covered.lastLine() {
			continue
		}
		start = max(start, covered.lastLine()+1)
		covered.add(start, end)

		switch d := decl.(type) {
		case *ast.FuncDecl:
			chunks = append(chunks, schema.Chunk{
				Content:   textsplitter.JoinLines(lines, start-1, end-1, 1).Text,
				StartLine: start,
				EndLine:   end,
				Type:      schema.ChunkTypeFunction,
				Name:      p.funcName(d),
			})
		case *ast.GenDecl:
			chunks = append(chunks, p.typeChunks(fset, lines, d, start, end, maxUnits)...)
		}
	}

	if residual, ok := residualChunk(lines, covered); ok {
		chunks = append(chunks, residual)
	}

	p.logger.Debug("Created chunks for Go file", "count", len(chunks), "path", path)
	for i, chunk := range chunks {
		p.logger.Debug("Chunk info",
			"index", i,
			"type", chunk.Type,
			"name", chunk.Name,
			"lines", fmt.Sprintf("%d-%d", chunk.StartLine, chunk.EndLine),
		)
	}

	return chunks, nil
}

// declLines returns the 1-based inclusive line span of a declaration,
// starting at its doc comment when it has one.
func declLines(fset *token.FileSet, doc *ast.CommentGroup, node ast.Node) (int, int) {
	start := fset.Position(node.Pos()).Line
	if doc != nil {
		start = fset.Position(doc.Pos()).Line
	}
	return start, fset.Position(node.End()).Line
}

// typeChunks emits a type declaration as one class chunk, or splits it into
// parts along its members when it exceeds the budget.
func (p *GoPlugin) typeChunks(
	fset *token.FileSet,
	lines []string,
	decl *ast.GenDecl,
	start, end int,
	maxUnits int,
) []schema.Chunk {
	name := typeName(decl)
	whole := schema.Chunk{
		Content:   textsplitter.JoinLines(lines, start-1, end-1, 1).Text,
		StartLine: start,
		EndLine:   end,
		Type:      schema.ChunkTypeClass,
		Name:      name,
	}

	if p.estimator.Estimate(whole.Content) <= maxUnits {
		return []schema.Chunk{whole}
	}

	members := memberSpans(fset, memberNodes(decl), start, end)
	if len(members) == 0 {
		p.logger.Debug("Oversized type has no members to split on", "type", name, "lines", fmt.Sprintf("%d-%d", start, end))
		return []schema.Chunk{whole}
	}

	parts := p.splitType(lines, name, start, end, members, maxUnits)
	p.logger.Debug("Split oversized type", "type", name, "parts", len(parts), "members", len(members))
	return parts
}

// splitType greedily packs members onto a buffer seeded with the type header.
// Every follow-up part repeats the header and a continuation marker.
func (p *GoPlugin) splitType(lines []string, name string, start, end int, members []lineRange, maxUnits int) []schema.Chunk {
	text := func(first, last int) string {
		if first > last {
			return ""
		}
		return textsplitter.JoinLines(lines, first-1, last-1, 1).Text
	}

	header := text(start, members[0].start-1)
	tail := text(members[len(members)-1].end+1, end)

	var parts []schema.Chunk
	flush := func(content string, first, last int) {
		chunkType := schema.ChunkTypeClassPart
		if len(parts) == 0 {
			chunkType = schema.ChunkTypeClass
		}
		parts = append(parts, schema.Chunk{
			Content:   content,
			StartLine: first,
			EndLine:   last,
			Type:      chunkType,
			Name:      name,
		})
	}

	buffer, bufferStart, bufferEnd := header, start, start
	hasMembers := false

	for i, member := range members {
		// Lines between two members travel with the later one.
		from := member.start
		if i > 0 {
			from = members[i-1].end + 1
		}
		memberText := text(from, member.end)

		candidate := joinNonEmpty(buffer, memberText)
		if hasMembers && p.estimator.Estimate(candidate) > maxUnits {
			flush(buffer, bufferStart, bufferEnd)
			buffer = joinNonEmpty(joinNonEmpty(header, continuedMarker), memberText)
			bufferStart = from
		} else {
			buffer = candidate
		}
		bufferEnd = member.end
		hasMembers = true
	}

	flush(joinNonEmpty(buffer, tail), bufferStart, end)
	return parts
}

type memberNode struct {
	node ast.Node
	doc  *ast.CommentGroup
}

// memberNodes returns the split points of a type declaration: the specs of a
// grouped declaration, otherwise the fields of a struct or the methods of an
// interface.
func memberNodes(decl *ast.GenDecl) []memberNode {
	var nodes []memberNode

	if len(decl.Specs) > 1 {
		for _, spec := range decl.Specs {
			if ts, ok := spec.(*ast.TypeSpec); ok {
				nodes = append(nodes, memberNode{node: ts, doc: ts.Doc})
			}
		}
		return nodes
	}

	if len(decl.Specs) == 0 {
		return nil
	}
	ts, ok := decl.Specs[0].(*ast.TypeSpec)
	if !ok {
		return nil
	}

	var fields *ast.FieldList
	switch t := ts.Type.(type) {
	case *ast.StructType:
		fields = t.Fields
	case *ast.InterfaceType:
		fields = t.Methods
	}
	if fields == nil {
		return nil
	}

	for _, field := range fields.List {
		nodes = append(nodes, memberNode{node: field, doc: field.Doc})
	}
	return nodes
}

// memberSpans converts member nodes to 1-based inclusive line ranges clamped
// to the declaration. Members sharing a line are merged.
func memberSpans(fset *token.FileSet, nodes []memberNode, declStart, declEnd int) []lineRange {
	var spans []lineRange
	for _, n := range nodes {
		first, last := declLines(fset, n.doc, n.node)
		first = max(first, declStart)
		last = min(last, declEnd)

		if len(spans) > 0 && first <= spans[len(spans)-1].end {
			spans[len(spans)-1].end = max(spans[len(spans)-1].end, last)
			continue
		}
		spans = append(spans, lineRange{start: first, end: last})
	}
	return spans
}

// residualChunk gathers every line outside an emitted declaration, in file
// order, into one top_level chunk spanning the whole file.
func residualChunk(lines []string, covered coverage) (schema.Chunk, bool) {
	var leftover []string
	for _, r := range covered.complement(len(lines)) {
		leftover = append(leftover, lines[r.start:r.end]...)
	}

	content := strings.Join(leftover, "\n")
	if strings.TrimSpace(content) == "" {
		return schema.Chunk{}, false
	}

	return schema.Chunk{
		Content:   content,
		StartLine: 1,
		EndLine:   len(lines),
		Type:      schema.ChunkTypeTopLevel,
	}, true
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}
