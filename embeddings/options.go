package embeddings

type options struct {
	StripNewLines  bool
	BatchSize      int
	MaxConcurrency int
}

type Option func(*options)

func WithBatchSize(size int) Option {
	return func(opts *options) {
		opts.BatchSize = size
	}
}

// WithStripNewLines flattens texts to a single line before embedding. Code
// keeps its newlines by default.
func WithStripNewLines(strip bool) Option {
	return func(opts *options) {
		opts.StripNewLines = strip
	}
}

// WithMaxConcurrency bounds the number of batches in flight.
func WithMaxConcurrency(n int) Option {
	return func(opts *options) {
		opts.MaxConcurrency = n
	}
}
