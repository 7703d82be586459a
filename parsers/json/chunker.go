package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

const indent = "  "

var errUnexpectedToken = errors.New("unexpected JSON token")

// Chunk emits one json_key chunk per top-level key of an object root, or one
// json_array_item chunk per element of an array root. Chunk content is
// re-serialized, so line ranges are sequential over the rendered chunks rather
// than positions in the source file.
func (p *JSONPlugin) Chunk(content string, path string, _ *schema.ChunkingOptions) ([]schema.Chunk, error) {
	if !json.Valid([]byte(content)) {
		p.logger.Debug("Invalid JSON, keeping content verbatim", "path", path)
		return []schema.Chunk{verbatimChunk(content, schema.ChunkTypeJSONInvalid)}, nil
	}

	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return []schema.Chunk{verbatimChunk(content, schema.ChunkTypeJSONInvalid)}, nil
	}

	var chunks []schema.Chunk
	switch token {
	case json.Delim('{'):
		chunks, err = p.objectChunks(decoder)
	case json.Delim('['):
		chunks, err = p.arrayChunks(decoder)
	}
	if err != nil {
		p.logger.Warn("Failed to split JSON document", "path", path, "error", err)
		return []schema.Chunk{verbatimChunk(content, schema.ChunkTypeJSONInvalid)}, nil
	}

	// Scalars and empty containers have nothing to split on.
	if len(chunks) == 0 {
		return []schema.Chunk{verbatimChunk(content, schema.ChunkTypeJSONFull)}, nil
	}

	p.logger.Debug("Created chunks for JSON file", "count", len(chunks), "path", path)
	return chunks, nil
}

func (p *JSONPlugin) objectChunks(decoder *json.Decoder) ([]schema.Chunk, error) {
	var chunks []schema.Chunk
	line := 1

	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v", errUnexpectedToken, token)
		}

		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return nil, fmt.Errorf("read value of %q: %w", key, err)
		}

		rendered, err := renderKey(key, value)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, recordChunk(rendered, schema.ChunkTypeJSONKey, key, &line))
	}

	return chunks, nil
}

func (p *JSONPlugin) arrayChunks(decoder *json.Decoder) ([]schema.Chunk, error) {
	var chunks []schema.Chunk
	line := 1

	for i := 0; decoder.More(); i++ {
		var item json.RawMessage
		if err := decoder.Decode(&item); err != nil {
			return nil, fmt.Errorf("read item %d: %w", i, err)
		}

		var rendered bytes.Buffer
		if err := json.Indent(&rendered, item, "", indent); err != nil {
			return nil, fmt.Errorf("indent item %d: %w", i, err)
		}
		chunks = append(chunks, recordChunk(rendered.String(), schema.ChunkTypeJSONArrayItem, fmt.Sprintf("item_%d", i), &line))
	}

	return chunks, nil
}

// renderKey serializes a single-key object with two-space indentation.
func renderKey(key string, value json.RawMessage) (string, error) {
	var encodedKey bytes.Buffer
	encoder := json.NewEncoder(&encodedKey)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(key); err != nil {
		return "", fmt.Errorf("encode key %q: %w", key, err)
	}

	var rendered bytes.Buffer
	if err := json.Indent(&rendered, value, indent, indent); err != nil {
		return "", fmt.Errorf("indent value of %q: %w", key, err)
	}

	return "{\n" + indent + strings.TrimSuffix(encodedKey.String(), "\n") + ": " + rendered.String() + "\n}", nil
}

// recordChunk assigns the next synthetic line range and advances line past it.
func recordChunk(content string, chunkType schema.ChunkType, name string, line *int) schema.Chunk {
	lines := textsplitter.CountLines(content)
	chunk := schema.Chunk{
		Content:   content,
		StartLine: *line,
		EndLine:   *line + lines - 1,
		Type:      chunkType,
		Name:      name,
	}
	*line += lines
	return chunk
}

func verbatimChunk(content string, chunkType schema.ChunkType) schema.Chunk {
	return schema.Chunk{
		Content:   content,
		StartLine: 1,
		EndLine:   textsplitter.CountLines(content),
		Type:      chunkType,
	}
}
