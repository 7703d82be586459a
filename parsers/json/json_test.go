package json_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonparser "github.com/sevigo/repochunk/parsers/json"
	logger "github.com/sevigo/repochunk/parsers/testing"
	"github.com/sevigo/repochunk/schema"
)

func TestJSONPlugin_ShapeDispatch(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := jsonparser.NewJSONPlugin(log, nil)

	tests := []struct {
		name    string
		content string
		types   []schema.ChunkType
		names   []string
	}{
		{
			name:    "object root",
			content: `{"a":1,"b":2}`,
			types:   []schema.ChunkType{schema.ChunkTypeJSONKey, schema.ChunkTypeJSONKey},
			names:   []string{"a", "b"},
		},
		{
			name:    "array root",
			content: `[1,2,3]`,
			types:   []schema.ChunkType{schema.ChunkTypeJSONArrayItem, schema.ChunkTypeJSONArrayItem, schema.ChunkTypeJSONArrayItem},
			names:   []string{"item_0", "item_1", "item_2"},
		},
		{
			name:    "scalar root",
			content: `"just a string"`,
			types:   []schema.ChunkType{schema.ChunkTypeJSONFull},
			names:   []string{""},
		},
		{
			name:    "malformed",
			content: `{invalid`,
			types:   []schema.ChunkType{schema.ChunkTypeJSONInvalid},
			names:   []string{""},
		},
		{
			name:    "empty object",
			content: "{}\n",
			types:   []schema.ChunkType{schema.ChunkTypeJSONFull},
			names:   []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := plugin.Chunk(tt.content, "data.json", nil)
			require.NoError(t, err)
			require.Len(t, chunks, len(tt.types))

			for i, chunk := range chunks {
				assert.Equal(t, tt.types[i], chunk.Type)
				assert.Equal(t, tt.names[i], chunk.Name)
				assert.NoError(t, chunk.Validate())
			}
		})
	}
}

func TestJSONPlugin_VerbatimFallbacks(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := jsonparser.NewJSONPlugin(log, nil)

	for content, end := range map[string]int{"{invalid\n\n": 2, "{invalid\n": 1, "42\n": 1, "42": 1, "   ": 1} {
		chunks, err := plugin.Chunk(content, "data.json", nil)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, content, chunks[0].Content)
		assert.Equal(t, 1, chunks[0].StartLine)
		assert.Equal(t, end, chunks[0].EndLine, "%q", content)
	}
}

func TestJSONPlugin_KeyChunks(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := jsonparser.NewJSONPlugin(log, nil)

	content := `{
  "zeta": {"enabled": true, "tags": ["x", "y"]},
  "alpha": "<b>",
  "mid": []
}`

	chunks, err := plugin.Chunk(content, "config.json", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	t.Run("keeps source key order", func(t *testing.T) {
		assert.Equal(t, "zeta", chunks[0].Name)
		assert.Equal(t, "alpha", chunks[1].Name)
		assert.Equal(t, "mid", chunks[2].Name)
	})

	t.Run("renders indented single-key objects", func(t *testing.T) {
		assert.Equal(t, "{\n  \"zeta\": {\n    \"enabled\": true,\n    \"tags\": [\n      \"x\",\n      \"y\"\n    ]\n  }\n}", chunks[0].Content)
		assert.Equal(t, "{\n  \"alpha\": \"<b>\"\n}", chunks[1].Content)
		assert.Equal(t, "{\n  \"mid\": []\n}", chunks[2].Content)

		for _, chunk := range chunks {
			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(chunk.Content), &decoded))
			assert.Contains(t, decoded, chunk.Name)
		}
	})

	t.Run("line ranges are sequential over rendered chunks", func(t *testing.T) {
		assert.Equal(t, 1, chunks[0].StartLine)
		assert.Equal(t, 9, chunks[0].EndLine)
		assert.Equal(t, 10, chunks[1].StartLine)
		assert.Equal(t, 12, chunks[1].EndLine)
		assert.Equal(t, 13, chunks[2].StartLine)
		assert.Equal(t, 15, chunks[2].EndLine)
	})
}

func TestJSONPlugin_ArrayItems(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := jsonparser.NewJSONPlugin(log, nil)

	chunks, err := plugin.Chunk(`[{"id": 1, "name": "a"}, 2.50]`, "items.json", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "{\n  \"id\": 1,\n  \"name\": \"a\"\n}", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 4, chunks[0].EndLine)
	assert.Equal(t, "2.50", chunks[1].Content)
	assert.Equal(t, 5, chunks[1].StartLine)
	assert.Equal(t, 5, chunks[1].EndLine)
}
