package qdrant

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sevigo/repochunk/embeddings"
)

const (
	defaultHost = "localhost"
	defaultPort = 6334
)

var ErrInvalidOptions = errors.New("qdrant: invalid options provided")

type options struct {
	collectionName string
	qdrantURL      url.URL
	embedder       embeddings.Embedder
	apiKey         string
	logger         *slog.Logger
	useTLS         bool
	retryAttempts  int
	retryDelay     time.Duration
	batchSize      int
	maxConcurrency int
}

// Option defines a function type for configuring Qdrant store options.
type Option func(*options)

// WithCollectionName sets the default collection of the store.
func WithCollectionName(name string) Option {
	return func(opts *options) {
		opts.collectionName = strings.TrimSpace(name)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithURL sets the gRPC endpoint, e.g. http://localhost:6334.
func WithURL(qdrantURL url.URL) Option {
	return func(opts *options) {
		opts.qdrantURL = qdrantURL
	}
}

func WithEmbedder(embedder embeddings.Embedder) Option {
	return func(opts *options) {
		opts.embedder = embedder
	}
}

func WithAPIKey(apiKey string) Option {
	return func(opts *options) {
		opts.apiKey = strings.TrimSpace(apiKey)
	}
}

// WithTLS enables TLS for the gRPC connection.
func WithTLS(useTLS bool) Option {
	return func(opts *options) {
		opts.useTLS = useTLS
	}
}

// WithRetry sets how often a failed upsert batch is retried and the initial
// backoff between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(opts *options) {
		if attempts >= 0 {
			opts.retryAttempts = attempts
		}
		if delay > 0 {
			opts.retryDelay = delay
		}
	}
}

// WithBatchSize sets the number of points per upsert request.
func WithBatchSize(size int) Option {
	return func(opts *options) {
		if size > 0 {
			opts.batchSize = size
		}
	}
}

// WithMaxConcurrency bounds the number of upsert requests in flight.
func WithMaxConcurrency(n int) Option {
	return func(opts *options) {
		if n > 0 {
			opts.maxConcurrency = n
		}
	}
}

func parseOptions(opts ...Option) (options, error) {
	o := options{
		logger:         slog.Default(),
		retryAttempts:  DefaultRetryAttempts,
		retryDelay:     DefaultRetryDelay,
		batchSize:      DefaultBatchSize,
		maxConcurrency: DefaultMaxConcurrency,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	if o.qdrantURL.Host == "" {
		o.qdrantURL = url.URL{Scheme: "http", Host: fmt.Sprintf("%s:%d", defaultHost, defaultPort)}
	}
	if o.useTLS {
		o.qdrantURL.Scheme = "https"
	}

	if err := o.validate(); err != nil {
		return o, err
	}
	return o, nil
}

func (opts *options) validate() error {
	if opts.collectionName == "" {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, ErrMissingCollectionName)
	}
	if opts.embedder == nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, ErrMissingEmbedder)
	}
	if opts.batchSize > MaxBatchSize {
		return fmt.Errorf("%w: %w: %d", ErrInvalidOptions, ErrBatchSizeTooLarge, opts.batchSize)
	}
	if opts.qdrantURL.Scheme != "http" && opts.qdrantURL.Scheme != "https" {
		return fmt.Errorf("%w: URL scheme must be http or https", ErrInvalidOptions)
	}
	return nil
}

// String describes the options without secrets.
func (opts *options) String() string {
	parts := []string{
		"collection=" + opts.collectionName,
		"host=" + opts.qdrantURL.Host,
	}
	if opts.apiKey != "" {
		parts = append(parts, "has_api_key=true")
	}
	return "QdrantOptions{" + strings.Join(parts, ", ") + "}"
}
