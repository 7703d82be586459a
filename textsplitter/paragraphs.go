package textsplitter

import "strings"

// SplitLines splits content on "\n" so that index i holds line i+1. The
// newline ending the last line does not open another line.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CountLines returns the number of lines text occupies, derived from its
// newline count. It always equals len(SplitLines(text)).
func CountLines(text string) int {
	n := strings.Count(text, "\n")
	if n > 0 && strings.HasSuffix(text, "\n") {
		return n
	}
	return n + 1
}

// JoinLines renders lines[from:to+1] (0-based, inclusive) as a span whose line
// numbers are offset by firstLine, the number of lines[0].
func JoinLines(lines []string, from, to, firstLine int) Span {
	return Span{
		Text:      strings.Join(lines[from:to+1], "\n"),
		StartLine: firstLine + from,
		EndLine:   firstLine + to,
	}
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Paragraphs groups runs of consecutive non-blank lines. Whitespace-only lines
// separate paragraphs and belong to none of them.
func Paragraphs(lines []string, firstLine int) []Span {
	var spans []Span
	start := -1
	for i, line := range lines {
		if isBlank(line) {
			if start >= 0 {
				spans = append(spans, JoinLines(lines, start, i-1, firstLine))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, JoinLines(lines, start, len(lines)-1, firstLine))
	}
	return spans
}

// TrimBlankLines drops leading and trailing blank lines. It reports false when
// every line is blank.
func TrimBlankLines(lines []string, firstLine int) (Span, bool) {
	from, to := 0, len(lines)-1
	for from <= to && isBlank(lines[from]) {
		from++
	}
	for to >= from && isBlank(lines[to]) {
		to--
	}
	if from > to {
		return Span{}, false
	}
	return JoinLines(lines, from, to, firstLine), true
}

// Pack greedily merges consecutive paragraphs while the estimate of the merged
// text stays within maxUnits. A merged span holds the verbatim source lines
// from its first paragraph to its last, blank separators included. A single
// paragraph larger than the budget is emitted on its own.
func Pack(lines []string, firstLine int, paragraphs []Span, estimator Estimator, maxUnits int) []Span {
	var packed []Span
	var current Span
	hasCurrent := false

	for _, para := range paragraphs {
		if !hasCurrent {
			current, hasCurrent = para, true
			continue
		}

		candidate := JoinLines(lines, current.StartLine-firstLine, para.EndLine-firstLine, firstLine)
		if estimator.Estimate(candidate.Text) > maxUnits {
			packed = append(packed, current)
			current = para
			continue
		}
		current = candidate
	}

	if hasCurrent {
		packed = append(packed, current)
	}
	return packed
}

// WindowLines converts a unit budget into a line window, never smaller than
// MinWindowLines.
func WindowLines(maxUnits int) int {
	return max(MinWindowLines, maxUnits/unitsPerWindowLine)
}

// EffectiveMaxUnits returns maxUnits, or DefaultMaxUnits when it is not positive.
func EffectiveMaxUnits(maxUnits int) int {
	if maxUnits <= 0 {
		return DefaultMaxUnits
	}
	return maxUnits
}
