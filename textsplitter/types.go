package textsplitter

import "errors"

// Constants for chunking parameters
const (
	DefaultMaxUnits        = 500
	defaultEstimationRatio = 4.0

	// Window sizing for the line fallback.
	MinWindowLines     = 10
	unitsPerWindowLine = 20
)

var ErrInvalidChunkSize = errors.New("invalid chunk size")

// Span is a run of source lines together with its 1-based inclusive line range.
type Span struct {
	Text      string
	StartLine int
	EndLine   int
}

// Lines returns the number of source lines covered by the span.
func (s Span) Lines() int {
	return s.EndLine - s.StartLine + 1
}
