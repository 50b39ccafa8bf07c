package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdchat/internal/chunker"
	"mdchat/internal/domain"
	"mdchat/internal/embedding/tfidf"
	"mdchat/internal/loader"
	"mdchat/internal/vectorstore/flat"
)

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func newBuilder() *Builder {
	return NewBuilder(
		loader.New(nil),
		chunker.NewMarkdownChunker(200, 20),
		tfidf.NewEmbedder(),
		flat.New(),
		nil,
	)
}

func TestBuildAndOpenRoundTrip(t *testing.T) {
	docsDir := writeDocs(t, map[string]string{
		"cats.md": "# Cats\nCats sleep most of the day and hunt at night.",
		"dogs.md": "# Dogs\nDogs enjoy long walks and chasing squirrels.",
	})
	indexDir := filepath.Join(t.TempDir(), "index")

	b := newBuilder()
	require.NoError(t, b.Build(context.Background(), docsDir, indexDir))

	// Both the index and the vectorizer state must be persisted.
	assert.FileExists(t, filepath.Join(indexDir, flat.IndexFile))
	assert.FileExists(t, filepath.Join(indexDir, tfidf.StateFile))

	serveEmb := tfidf.NewEmbedder()
	storage, err := Open(indexDir, serveEmb)
	require.NoError(t, err)

	vec, err := serveEmb.Embed(context.Background(), []string{"squirrels and long walks"})
	require.NoError(t, err)
	results, err := storage.Search(context.Background(), vec[0], 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(docsDir, "dogs.md"), results[0].Chunk.Source)
}

func TestBuildIsDeterministicOverContent(t *testing.T) {
	docsDir := writeDocs(t, map[string]string{
		"a.md": "# One\nfirst document body",
		"b.md": "# Two\nsecond document body",
	})

	record := func() [][2]string {
		indexDir := filepath.Join(t.TempDir(), "index")
		b := newBuilder()
		require.NoError(t, b.Build(context.Background(), docsDir, indexDir))
		st, err := flat.Load(indexDir)
		require.NoError(t, err)
		var pairs [][2]string
		for _, c := range st.Records() {
			pairs = append(pairs, [2]string{c.Text, c.Source})
		}
		return pairs
	}

	// Chunk IDs differ between builds, but the (text, source) sequence
	// must not.
	assert.Equal(t, record(), record())
}

func TestBuildNoDocuments(t *testing.T) {
	b := newBuilder()
	err := b.Build(context.Background(), t.TempDir(), filepath.Join(t.TempDir(), "index"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoDocuments))
}

func TestBuildNoChunks(t *testing.T) {
	docsDir := writeDocs(t, map[string]string{"empty.md": "   \n\n  "})
	b := newBuilder()
	err := b.Build(context.Background(), docsDir, filepath.Join(t.TempDir(), "index"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoChunks))
}

func TestBuildMissingDocsDir(t *testing.T) {
	b := newBuilder()
	err := b.Build(context.Background(), filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.Error(t, err)
}

func TestOpenMissingIndex(t *testing.T) {
	_, err := Open(t.TempDir(), tfidf.NewEmbedder())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexMissing))
}
