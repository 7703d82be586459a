package vectorstores

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sevigo/repochunk/schema"
)

// chunkNamespace scopes chunk IDs so they never collide with other UUIDv5 users.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/sevigo/repochunk/chunk"))

// ChunkID returns the stable point ID of a chunk. Re-chunking an unchanged
// file yields the same IDs, so upserts overwrite instead of duplicating.
func ChunkID(filePath string, startLine, endLine int) string {
	key := fmt.Sprintf("%s:%d:%d", filePath, startLine, endLine)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

// DocumentID returns the point ID for a document: an explicit "id" metadata
// entry, else the chunk ID derived from its file path and line range, else a
// random UUID.
func DocumentID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok && id != "" {
		return id
	}

	path, _ := doc.Metadata["file_path"].(string)
	start, okStart := asInt(doc.Metadata["start_line"])
	end, okEnd := asInt(doc.Metadata["end_line"])
	if path != "" && okStart && okEnd {
		return ChunkID(path, start, end)
	}

	return uuid.New().String()
}

// ChunkDocuments converts chunks into documents carrying their stable ID.
func ChunkDocuments(chunks []schema.Chunk) []schema.Document {
	docs := make([]schema.Document, len(chunks))
	for i, chunk := range chunks {
		doc := chunk.Document()
		doc.Metadata["id"] = ChunkID(chunk.FilePath, chunk.StartLine, chunk.EndLine)
		docs[i] = doc
	}
	return docs
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
