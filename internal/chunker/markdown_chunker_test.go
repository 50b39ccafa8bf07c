package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdchat/internal/domain"
)

func chunkTexts(t *testing.T, c *MarkdownChunker, content string) []string {
	t.Helper()
	chunks, err := c.Chunk(domain.Document{Path: "doc.md", Content: content})
	require.NoError(t, err)
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}

func TestChunkEmptyDocument(t *testing.T) {
	c := NewMarkdownChunker(100, 10)
	chunks, err := c.Chunk(domain.Document{Path: "empty.md", Content: "  \n\n "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkSmallDocumentIsSingleChunk(t *testing.T) {
	c := NewMarkdownChunker(100, 10)
	texts := chunkTexts(t, c, "just a short paragraph")
	require.Len(t, texts, 1)
	assert.Equal(t, "just a short paragraph", texts[0])
}

func TestChunkSplitsOnHeaders(t *testing.T) {
	content := "# First\nalpha text\n## Second\nbeta text\n# Third\ngamma text"
	c := NewMarkdownChunker(1000, 100)
	texts := chunkTexts(t, c, content)

	require.Len(t, texts, 3)
	assert.True(t, strings.HasPrefix(texts[0], "# First"))
	assert.True(t, strings.HasPrefix(texts[1], "## Second"))
	assert.True(t, strings.HasPrefix(texts[2], "# Third"))
	assert.Contains(t, texts[1], "beta text")
}

func TestChunkPreambleBeforeFirstHeader(t *testing.T) {
	content := "intro paragraph\n# Section\nbody"
	c := NewMarkdownChunker(1000, 100)
	texts := chunkTexts(t, c, content)

	require.Len(t, texts, 2)
	assert.Equal(t, "intro paragraph", texts[0])
	assert.True(t, strings.HasPrefix(texts[1], "# Section"))
}

func TestChunkRespectsSizeBound(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("some repeated sentence that fills up the section. ")
	}
	c := NewMarkdownChunker(200, 20)
	texts := chunkTexts(t, c, b.String())

	require.Greater(t, len(texts), 1)
	for i, text := range texts {
		assert.LessOrEqualf(t, utf8.RuneCountInString(text), 200, "chunk %d exceeds size bound", i)
	}
}

func TestChunkOverlapSharedBetweenNeighbours(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("word word word word word word word word word word. ")
	}
	c := NewMarkdownChunker(200, 40)
	texts := chunkTexts(t, c, b.String())

	require.Greater(t, len(texts), 1)
	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(texts); i++ {
		tail := tailRunes(texts[i-1], 40)
		assert.Truef(t, strings.HasPrefix(texts[i], tail),
			"chunk %d does not start with the previous chunk's tail", i)
	}
}

func TestChunkNoSeparatorFallsBackToWindows(t *testing.T) {
	long := strings.Repeat("x", 450)
	c := NewMarkdownChunker(200, 50)
	texts := chunkTexts(t, c, long)

	require.Greater(t, len(texts), 1)
	for _, text := range texts {
		assert.LessOrEqual(t, utf8.RuneCountInString(text), 200)
	}
	// Windows step by size-overlap, so consecutive windows share runes.
	assert.Equal(t, tailRunes(texts[0], 50), texts[1][:50])
}

func TestChunkIndexesAreSequentialPerDocument(t *testing.T) {
	content := "# A\n" + strings.Repeat("alpha beta gamma. ", 30) + "\n# B\nshort"
	c := NewMarkdownChunker(120, 20)
	chunks, err := c.Chunk(domain.Document{Path: "doc.md", Content: content})
	require.NoError(t, err)

	require.NotEmpty(t, chunks)
	ids := make(map[string]struct{})
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.Equal(t, "doc.md", ch.Source)
		require.NotEmpty(t, ch.ID)
		_, dup := ids[ch.ID]
		assert.False(t, dup, "chunk IDs must be unique")
		ids[ch.ID] = struct{}{}
	}
}

func TestNewMarkdownChunkerSanitizesConfig(t *testing.T) {
	c := NewMarkdownChunker(0, -5)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, 0, c.overlap)

	c = NewMarkdownChunker(100, 150)
	assert.Equal(t, 25, c.overlap, "overlap >= size collapses to a quarter of size")
}
