package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ChunkType tags how a chunk was produced.
type ChunkType string

const (
	ChunkTypeFunction        ChunkType = "function"
	ChunkTypeClass           ChunkType = "class"
	ChunkTypeClassPart       ChunkType = "class_part"
	ChunkTypeTopLevel        ChunkType = "top_level"
	ChunkTypeMarkdownSection ChunkType = "markdown_section"
	ChunkTypeJSONKey         ChunkType = "json_key"
	ChunkTypeJSONArrayItem   ChunkType = "json_array_item"
	ChunkTypeJSONFull        ChunkType = "json_full"
	ChunkTypeJSONInvalid     ChunkType = "json_invalid"
	ChunkTypeText            ChunkType = "text_chunk"
	ChunkTypeLineBased       ChunkType = "line_based"
	ChunkTypeFullFile        ChunkType = "full_file"
)

var (
	ErrInvalidLineRange = errors.New("invalid chunk line range")
	ErrEmptyChunk       = errors.New("chunk content is empty")
	ErrUnknownChunkType = errors.New("unknown chunk type")
)

// Valid reports whether t belongs to the closed set of chunk types.
func (t ChunkType) Valid() bool {
	switch t {
	case ChunkTypeFunction, ChunkTypeClass, ChunkTypeClassPart, ChunkTypeTopLevel,
		ChunkTypeMarkdownSection, ChunkTypeJSONKey, ChunkTypeJSONArrayItem, ChunkTypeJSONFull,
		ChunkTypeJSONInvalid, ChunkTypeText, ChunkTypeLineBased, ChunkTypeFullFile:
		return true
	default:
		return false
	}
}

// Verbatim reports whether chunks of this type carry the original file content
// unmodified, even when it is only whitespace.
func (t ChunkType) Verbatim() bool {
	return t == ChunkTypeJSONInvalid || t == ChunkTypeFullFile
}

// Chunk is a bounded text fragment plus the positional and file context needed
// to map it back to its source. Splitters fill the first five fields, the
// router stamps the file context.
type Chunk struct {
	Content   string    `json:"content"`
	StartLine int       `json:"start_line"`
	EndLine   int       `json:"end_line"`
	Type      ChunkType `json:"chunk_type"`
	Name      string    `json:"name,omitempty"`

	FilePath      string     `json:"file_path,omitempty"`
	FileName      string     `json:"file_name,omitempty"`
	FileExtension string     `json:"file_extension,omitempty"`
	Language      string     `json:"language,omitempty"`
	OgMeta        FileRecord `json:"og_meta,omitempty"`
}

func (c Chunk) String() string {
	return fmt.Sprintf("%s[%s] %s:%d-%d", c.Type, c.Name, c.FilePath, c.StartLine, c.EndLine)
}

// Validate checks the structural invariants every emitted chunk must satisfy.
func (c Chunk) Validate() error {
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChunkType, c.Type)
	}
	if c.StartLine < 1 || c.StartLine > c.EndLine {
		return fmt.Errorf("%w: %d-%d", ErrInvalidLineRange, c.StartLine, c.EndLine)
	}
	if !c.Type.Verbatim() && strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("%w: %s at line %d", ErrEmptyChunk, c.Type, c.StartLine)
	}
	return nil
}

// Metadata returns every chunk field except the content. This is the payload
// handed to the storage collaborator alongside the embedding.
func (c Chunk) Metadata() map[string]any {
	metadata := map[string]any{
		"file_path":      c.FilePath,
		"file_name":      c.FileName,
		"file_extension": c.FileExtension,
		"language":       c.Language,
		"chunk_type":     string(c.Type),
		"start_line":     c.StartLine,
		"end_line":       c.EndLine,
	}
	if c.Name != "" {
		metadata["name"] = c.Name
	}
	if c.OgMeta.Path != "" {
		metadata["og_meta"] = c.OgMeta.Map()
	}
	return metadata
}

// Document converts the chunk into its storage form.
func (c Chunk) Document() Document {
	return NewDocument(c.Content, c.Metadata())
}

// Document is the storage-facing unit: embedded content plus flat metadata.
type Document struct {
	PageContent string
	Metadata    map[string]any
}

func (d Document) String() string {
	return d.PageContent
}

func NewDocument(content string, metadata map[string]any) Document {
	if metadata == nil {
		metadata = make(map[string]any)
	}
	return Document{
		PageContent: content,
		Metadata:    metadata,
	}
}

type CollectionInfo struct {
	Name           string `json:"name"`            // Name of the collection.
	PointsCount    uint64 `json:"points_count"`    // Number of points (vectors) in the collection.
	VectorSize     uint64 `json:"vector_size"`     // Dimensionality of the vectors in this collection.
	VectorDistance string `json:"vector_distance"` // Distance metric used by the collection (e.g., "Cosine").
}
