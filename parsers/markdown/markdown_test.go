package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/repochunk/parsers/markdown"
	logger "github.com/sevigo/repochunk/parsers/testing"
	"github.com/sevigo/repochunk/schema"
	"github.com/sevigo/repochunk/textsplitter"
)

func TestMarkdownPlugin(t *testing.T) {
	log, _ := logger.NewTestLogger(t)
	plugin := markdown.NewMarkdownPlugin(log, nil)

	t.Run("BasicInfo", func(t *testing.T) {
		assert.Equal(t, "markdown", plugin.Name())
		assert.Contains(t, plugin.Extensions(), ".md")
		assert.Contains(t, plugin.Extensions(), ".markdown")
		assert.True(t, plugin.CanHandle("README.MD", nil))
		assert.False(t, plugin.CanHandle("notes.txt", nil))
	})

	t.Run("SplitsAtHeadings", func(t *testing.T) {
		content := "# Title\n\nIntro text.\n\n## Usage\n\n```bash\n# not a heading\nmake build\n```\n\n## License\nMIT\n"

		chunks, err := plugin.Chunk(content, "README.md", nil)
		require.NoError(t, err)
		require.Len(t, chunks, 3)

		expected := []struct {
			name       string
			start, end int
			first      string
		}{
			{"Title", 1, 3, "# Title"},
			{"Usage", 5, 10, "## Usage"},
			{"License", 12, 13, "## License"},
		}
		for i, want := range expected {
			assert.Equal(t, schema.ChunkTypeMarkdownSection, chunks[i].Type)
			assert.Equal(t, want.name, chunks[i].Name)
			assert.Equal(t, want.start, chunks[i].StartLine)
			assert.Equal(t, want.end, chunks[i].EndLine)
			assert.True(t, strings.HasPrefix(chunks[i].Content, want.first))
			assert.NoError(t, chunks[i].Validate())
		}
		assert.Contains(t, chunks[1].Content, "# not a heading", "code block stays inside its section")
	})

	t.Run("FrontMatterNamesPreamble", func(t *testing.T) {
		content := "---\ntitle: Guide\n# yaml comment\n---\nPreamble text.\n\n# Start\nBody\n"

		chunks, err := plugin.Chunk(content, "guide.md", nil)
		require.NoError(t, err)
		require.Len(t, chunks, 2)

		assert.Equal(t, "Guide", chunks[0].Name)
		assert.Equal(t, 1, chunks[0].StartLine)
		assert.Equal(t, 5, chunks[0].EndLine)
		assert.Equal(t, "Start", chunks[1].Name)
		assert.Equal(t, 7, chunks[1].StartLine)
		assert.Equal(t, 8, chunks[1].EndLine)
	})

	t.Run("OversizedSectionSplitsByParagraph", func(t *testing.T) {
		para := strings.Repeat("a", 70)
		content := strings.Join([]string{"# Big", "", para, "", para, "", para}, "\n")
		opts := &schema.ChunkingOptions{MaxUnits: 20}

		chunks, err := plugin.Chunk(content, "big.md", opts)
		require.NoError(t, err)
		require.Len(t, chunks, 3)

		ranges := [][2]int{{1, 3}, {5, 5}, {7, 7}}
		estimator := textsplitter.DefaultEstimator()
		for i, chunk := range chunks {
			assert.Equal(t, "Big", chunk.Name)
			assert.Equal(t, ranges[i][0], chunk.StartLine)
			assert.Equal(t, ranges[i][1], chunk.EndLine)
			assert.LessOrEqual(t, estimator.Estimate(chunk.Content), opts.MaxUnits)
		}
	})

	t.Run("LineNumbersMatchSource", func(t *testing.T) {
		content := "intro\n\n\n\n# A\none\n\n\n## B\ntwo\nthree\n"
		lines := strings.Split(content, "\n")

		chunks, err := plugin.Chunk(content, "drift.md", nil)
		require.NoError(t, err)
		for _, chunk := range chunks {
			assert.Equal(t, strings.Join(lines[chunk.StartLine-1:chunk.EndLine], "\n"), chunk.Content)
		}
	})

	t.Run("HeadingNames", func(t *testing.T) {
		content := "## Title ##\nA\n\n# C#\nB\n\n### Setup ###   \nC\n\n## Issue #42\nD\n\n## ##\nE\n"
		chunks, err := plugin.Chunk(content, "names.md", nil)
		require.NoError(t, err)

		var names []string
		for _, chunk := range chunks {
			names = append(names, chunk.Name)
		}
		assert.Equal(t, []string{"Title", "C#", "Setup", "Issue #42", ""}, names)
		assert.Equal(t, 14, chunks[len(chunks)-1].EndLine)
	})

	t.Run("EmptyDocument", func(t *testing.T) {
		chunks, err := plugin.Chunk("\n\n", "empty.md", nil)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}
