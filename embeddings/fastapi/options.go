package fastapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const defaultTask = "Given a code search query, retrieve relevant source code chunks"

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	task       string
	apiKey     string
}

// Option defines a function type for configuring the embedder.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
		task:       defaultTask,
	}
}

// WithHTTPClient allows providing a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTask overrides the instruction sent along with every batch.
func WithTask(task string) Option {
	return func(o *options) {
		if task != "" {
			o.task = task
		}
	}
}

// WithAPIKey sends the key in the X-Api-Key header.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = strings.TrimSpace(apiKey)
	}
}
