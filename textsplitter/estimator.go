package textsplitter

import "unicode/utf8"

// Estimator converts text into budget units. Implementations must be cheap,
// deterministic and monotonic in the length of the text.
type Estimator interface {
	Estimate(text string) int
}

// CharRatio estimates units as the character count divided by a constant.
// It is a proxy for token count, not a tokenizer.
type CharRatio struct {
	ratio float64
}

var _ Estimator = CharRatio{}

// NewCharRatio returns a CharRatio estimator. Non-positive ratios fall back
// to four characters per unit.
func NewCharRatio(ratio float64) CharRatio {
	if ratio <= 0 {
		ratio = defaultEstimationRatio
	}
	return CharRatio{ratio: ratio}
}

// DefaultEstimator is the four-characters-per-unit estimator.
func DefaultEstimator() Estimator {
	return NewCharRatio(defaultEstimationRatio)
}

func (c CharRatio) Estimate(text string) int {
	ratio := c.ratio
	if ratio <= 0 {
		ratio = defaultEstimationRatio
	}
	return int(float64(utf8.RuneCountInString(text)) / ratio)
}
