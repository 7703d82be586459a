// Package config holds the single configuration value of an ingestion run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/repochunk/textsplitter"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// envPrefix namespaces environment overrides, e.g. REPOCHUNK_MAX_UNITS.
const envPrefix = "REPOCHUNK_"

// Config is loaded once and passed explicitly to every component.
type Config struct {
	LogLevel  string          `yaml:"log_level"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Scan      ScanConfig      `yaml:"scan"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
}

// ChunkingConfig controls the router and its splitters.
type ChunkingConfig struct {
	MaxUnits        int     `yaml:"max_units"`
	EstimationRatio float64 `yaml:"estimation_ratio"`
	WindowLines     int     `yaml:"window_lines,omitempty"` // 0 derives the window from max_units
	MaxFileSize     int64   `yaml:"max_file_size"`
	Concurrency     int     `yaml:"concurrency"`
}

// ScanConfig controls the file registry scan.
type ScanConfig struct {
	Concurrency  int    `yaml:"concurrency"`
	RegistryFile string `yaml:"registry_file,omitempty"`
}

// EmbeddingConfig selects the embedder. An empty URL means the offline
// hashing embedder.
type EmbeddingConfig struct {
	URL       string `yaml:"url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Task      string `yaml:"task,omitempty"`
	BatchSize int    `yaml:"batch_size"`
	Dimension int    `yaml:"dimension,omitempty"` // offline embedder only
}

// QdrantConfig points at the vector store. An empty URL keeps chunks in memory.
type QdrantConfig struct {
	URL        string `yaml:"url,omitempty"`
	APIKey     string `yaml:"api_key,omitempty"`
	Collection string `yaml:"collection"`
	BatchSize  int    `yaml:"batch_size"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Chunking: ChunkingConfig{
			MaxUnits:        textsplitter.DefaultMaxUnits,
			EstimationRatio: 4,
			MaxFileSize:     10 << 20,
			Concurrency:     4,
		},
		Scan: ScanConfig{
			Concurrency: 8,
		},
		Embedding: EmbeddingConfig{
			BatchSize: 32,
		},
		Qdrant: QdrantConfig{
			Collection: "repochunk",
			BatchSize:  100,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, []string, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, nil, fmt.Errorf("read config %s: %w", path, err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, nil, err
	}

	warnings, err := cfg.Validate()
	return cfg, warnings, err
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"LOG_LEVEL":         &c.LogLevel,
		"EMBEDDING_URL":     &c.Embedding.URL,
		"EMBEDDING_API_KEY": &c.Embedding.APIKey,
		"QDRANT_URL":        &c.Qdrant.URL,
		"QDRANT_API_KEY":    &c.Qdrant.APIKey,
		"QDRANT_COLLECTION": &c.Qdrant.Collection,
	}
	for key, target := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*target = v
		}
	}

	ints := map[string]*int{
		"MAX_UNITS":   &c.Chunking.MaxUnits,
		"CONCURRENCY": &c.Chunking.Concurrency,
	}
	for key, target := range ints {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, envPrefix, key, v)
		}
		*target = n
	}
	return nil
}

// Validate rejects unusable values and replaces missing optional ones with
// defaults. The returned warnings describe each replacement.
func (c *Config) Validate() (warnings []string, err error) {
	defaults := Default()

	if c.Chunking.MaxUnits < 0 || c.Chunking.MaxUnits > textsplitter.MaxChunkUnits {
		return warnings, fmt.Errorf("%w: chunking.max_units must be between 0 and %d, got %d",
			ErrInvalidConfig, textsplitter.MaxChunkUnits, c.Chunking.MaxUnits)
	}
	if c.Chunking.MaxUnits == 0 {
		warnings = append(warnings, fmt.Sprintf("chunking.max_units not set, defaulting to %d", defaults.Chunking.MaxUnits))
		c.Chunking.MaxUnits = defaults.Chunking.MaxUnits
	}

	if c.Chunking.EstimationRatio <= 0 {
		warnings = append(warnings, "chunking.estimation_ratio should be > 0, defaulting to 4")
		c.Chunking.EstimationRatio = defaults.Chunking.EstimationRatio
	}
	if c.Chunking.WindowLines < 0 {
		return warnings, fmt.Errorf("%w: chunking.window_lines cannot be negative", ErrInvalidConfig)
	}
	if c.Chunking.MaxFileSize <= 0 {
		warnings = append(warnings, "chunking.max_file_size should be > 0, defaulting to 10MiB")
		c.Chunking.MaxFileSize = defaults.Chunking.MaxFileSize
	}
	if c.Chunking.Concurrency <= 0 {
		warnings = append(warnings, "chunking.concurrency should be > 0, defaulting to 4")
		c.Chunking.Concurrency = defaults.Chunking.Concurrency
	}
	if c.Scan.Concurrency <= 0 {
		warnings = append(warnings, "scan.concurrency should be > 0, defaulting to 8")
		c.Scan.Concurrency = defaults.Scan.Concurrency
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = defaults.Embedding.BatchSize
	}
	if c.Qdrant.BatchSize <= 0 {
		c.Qdrant.BatchSize = defaults.Qdrant.BatchSize
	}
	if strings.TrimSpace(c.Qdrant.Collection) == "" {
		warnings = append(warnings, "qdrant.collection is empty, defaulting to 'repochunk'")
		c.Qdrant.Collection = defaults.Qdrant.Collection
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return warnings, err
	}
	return warnings, nil
}

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// Estimator returns the size estimator described by the chunking section.
func (c Config) Estimator() textsplitter.Estimator {
	return textsplitter.NewCharRatio(c.Chunking.EstimationRatio)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, s)
	}
	return level, nil
}
