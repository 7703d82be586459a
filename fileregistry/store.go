package fileregistry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sevigo/repochunk/schema"
)

// MetadataFile is the conventional name of a saved registry.
const MetadataFile = "metadata.json"

// ErrInvalidRecord is returned when a loaded record has no path.
var ErrInvalidRecord = errors.New("file record has no path")

// Save writes records as an indented JSON array.
func Save(path string, records []schema.FileRecord) error {
	if records == nil {
		records = []schema.FileRecord{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write registry %s: %w", path, err)
	}
	return nil
}

// Load reads a registry written by Save or by any producer of the same shape.
// Unknown record keys are preserved.
func Load(path string) ([]schema.FileRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}

	var records []schema.FileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode registry %s: %w", path, err)
	}

	for i, record := range records {
		if record.Path == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrInvalidRecord, i)
		}
	}
	return records, nil
}
