package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"the cat sat on the mat",
	"dogs chase cats around the garden",
	"vector search finds similar documents",
}

func TestEmbedRequiresPrepare(t *testing.T) {
	e := NewEmbedder()
	_, err := e.Embed(context.Background(), []string{"anything"})
	require.Error(t, err)
}

func TestPrepareEmptyCorpusFails(t *testing.T) {
	e := NewEmbedder()
	require.Error(t, e.Prepare(context.Background(), nil))
}

func TestEmbedIsDeterministic(t *testing.T) {
	a := NewEmbedder()
	require.NoError(t, a.Prepare(context.Background(), corpus))
	b := NewEmbedder()
	require.NoError(t, b.Prepare(context.Background(), corpus))

	assert.Equal(t, a.Dimension(), b.Dimension())
	va, err := a.Embed(context.Background(), []string{"cat on the mat"})
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), []string{"cat on the mat"})
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestEmbedVectorsAreNormalized(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(context.Background(), corpus))

	vecs, err := e.Embed(context.Background(), []string{"cat sat on mat", "dogs chase cats"})
	require.NoError(t, err)
	for _, v := range vecs {
		norm := 0.0
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	}
}

func TestEmbedUnknownTokensYieldZeroVector(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(context.Background(), corpus))

	vecs, err := e.Embed(context.Background(), []string{"zzz qqq www"})
	require.NoError(t, err)
	for _, x := range vecs[0] {
		assert.Zero(t, x)
	}
}

func TestSimilarTextRanksCloser(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(context.Background(), corpus))

	vecs, err := e.Embed(context.Background(), []string{
		"where did the cat sit",
		"the cat sat on the mat",
		"vector search finds similar documents",
	})
	require.NoError(t, err)
	catDist := l2(vecs[0], vecs[1])
	otherDist := l2(vecs[0], vecs[2])
	assert.Less(t, catDist, otherDist)
}

func TestSaveLoadStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fitted := NewEmbedder()
	require.NoError(t, fitted.Prepare(context.Background(), corpus))
	require.NoError(t, fitted.SaveState(dir))

	restored := NewEmbedder()
	require.NoError(t, restored.LoadState(dir))
	assert.Equal(t, fitted.Dimension(), restored.Dimension())

	query := []string{"dogs in the garden"}
	want, err := fitted.Embed(context.Background(), query)
	require.NoError(t, err)
	got, err := restored.Embed(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveStateRequiresPrepare(t *testing.T) {
	require.Error(t, NewEmbedder().SaveState(t.TempDir()))
}

func TestLoadStateMissingFileFails(t *testing.T) {
	require.Error(t, NewEmbedder().LoadState(t.TempDir()))
}

func l2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
