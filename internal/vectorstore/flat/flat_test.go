package flat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdchat/internal/domain"
)

func seeded(t *testing.T) *Storage {
	t.Helper()
	s := New()
	require.NoError(t, s.Init(context.Background(), 2))
	chunks := []domain.Chunk{
		{ID: "1", Source: "a.md", Text: "origin"},
		{ID: "2", Source: "a.md", Text: "near"},
		{ID: "3", Source: "b.md", Text: "far"},
	}
	vectors := [][]float32{{0, 0}, {1, 0}, {10, 10}}
	require.NoError(t, s.Upsert(context.Background(), chunks, vectors))
	return s
}

func TestSearchOrdersByDistance(t *testing.T) {
	s := seeded(t)
	results, err := s.Search(context.Background(), []float32{0.1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "origin", results[0].Chunk.Text)
	assert.Equal(t, "near", results[1].Chunk.Text)
	assert.Equal(t, "far", results[2].Chunk.Text)
	assert.Less(t, results[0].Score, results[1].Score)
	assert.Less(t, results[1].Score, results[2].Score)
}

func TestSearchTruncatesToTopK(t *testing.T) {
	s := seeded(t)
	results, err := s.Search(context.Background(), []float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = s.Search(context.Background(), []float32{0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3, "topK above the record count returns everything")
}

func TestUpsertRejectsMismatches(t *testing.T) {
	s := New()
	require.NoError(t, s.Init(context.Background(), 2))

	err := s.Upsert(context.Background(), []domain.Chunk{{ID: "1"}}, nil)
	assert.Error(t, err, "chunk without vector")

	err = s.Upsert(context.Background(), []domain.Chunk{{ID: "1"}}, [][]float32{{1, 2, 3}})
	assert.Error(t, err, "wrong vector dimension")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := seeded(t)
	require.NoError(t, s.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)

	want := s.Records()
	got := loaded.Records()
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Text, got[i].Text)
		assert.Equal(t, want[i].Source, got[i].Source)
	}

	// The reloaded index must answer queries identically.
	before, err := s.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	after, err := loaded.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLoadMissingIndexIsDistinguishable(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrIndexMissing))
}
