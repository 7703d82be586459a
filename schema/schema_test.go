package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repochunk/schema"
)

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   schema.Chunk
		wantErr error
	}{
		{
			name:  "valid",
			chunk: schema.Chunk{Content: "x", StartLine: 1, EndLine: 1, Type: schema.ChunkTypeText},
		},
		{
			name:    "unknown type",
			chunk:   schema.Chunk{Content: "x", StartLine: 1, EndLine: 1, Type: "paragraph"},
			wantErr: schema.ErrUnknownChunkType,
		},
		{
			name:    "zero start line",
			chunk:   schema.Chunk{Content: "x", StartLine: 0, EndLine: 1, Type: schema.ChunkTypeText},
			wantErr: schema.ErrInvalidLineRange,
		},
		{
			name:    "reversed range",
			chunk:   schema.Chunk{Content: "x", StartLine: 3, EndLine: 2, Type: schema.ChunkTypeFunction},
			wantErr: schema.ErrInvalidLineRange,
		},
		{
			name:    "blank content",
			chunk:   schema.Chunk{Content: " \n\t", StartLine: 1, EndLine: 2, Type: schema.ChunkTypeLineBased},
			wantErr: schema.ErrEmptyChunk,
		},
		{
			name:  "verbatim fallback may be blank",
			chunk: schema.Chunk{Content: " \n", StartLine: 1, EndLine: 2, Type: schema.ChunkTypeFullFile},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.chunk.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChunk_Metadata(t *testing.T) {
	chunk := schema.Chunk{
		Content:       "func A() {}",
		StartLine:     4,
		EndLine:       6,
		Type:          schema.ChunkTypeFunction,
		Name:          "A",
		FilePath:      "pkg/a.go",
		FileName:      "a.go",
		FileExtension: ".go",
		Language:      "go",
		OgMeta:        schema.FileRecord{Path: "pkg/a.go", SHA256: "abc"},
	}

	metadata := chunk.Metadata()
	assert.NotContains(t, metadata, "content")
	assert.Equal(t, "function", metadata["chunk_type"])
	assert.Equal(t, 4, metadata["start_line"])
	assert.Equal(t, "A", metadata["name"])
	assert.Equal(t, "abc", metadata["og_meta"].(map[string]any)["sha256"])

	doc := chunk.Document()
	assert.Equal(t, chunk.Content, doc.PageContent)
	assert.Equal(t, metadata, doc.Metadata)

	unnamed := schema.Chunk{Content: "x", StartLine: 1, EndLine: 1, Type: schema.ChunkTypeTopLevel}
	assert.NotContains(t, unnamed.Metadata(), "name")
	assert.NotContains(t, unnamed.Metadata(), "og_meta")
	assert.Equal(t, "top_level[] :1-1", unnamed.String())
}

func TestFileRecord_PreservesUnknownKeys(t *testing.T) {
	input := `{"path":"a.go","sha256":"abc","is_binary":false,"line_count":3,"owner":"team-a","tags":["x"]}`

	var record schema.FileRecord
	require.NoError(t, json.Unmarshal([]byte(input), &record))
	assert.Equal(t, "a.go", record.Path)
	assert.Equal(t, 3, record.LineCount)
	assert.Equal(t, "team-a", record.Extra["owner"])

	encoded, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(encoded))
}

func TestFileRecord_KeepsAbsentAndNullKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "path only", input: `{"path":"a.go"}`},
		{name: "nulls stay null", input: `{"path":"a.py","filename":"a.py","is_binary":false,"language":null,"line_count":null}`},
		{name: "zero values present", input: `{"path":"a.go","is_binary":false,"line_count":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var record schema.FileRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &record))

			encoded, err := json.Marshal(record)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(encoded))
		})
	}

	var record schema.FileRecord
	require.NoError(t, json.Unmarshal([]byte(`{"path":"a.go"}`), &record))
	assert.NotContains(t, record.Map(), "is_binary")
	assert.NotContains(t, record.Map(), "line_count")

	record.LineCount = 12
	assert.Equal(t, 12, record.Map()["line_count"])

	scanned := schema.FileRecord{Path: "b.go"}
	assert.Equal(t, false, scanned.Map()["is_binary"])
	assert.Equal(t, 0, scanned.Map()["line_count"])
}
