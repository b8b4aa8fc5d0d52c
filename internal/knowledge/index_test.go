package knowledge

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerWindowsOverlap(t *testing.T) {
	chunker, err := NewChunker(10, 4)
	require.NoError(t, err)

	chunks := chunker.Split("abcdefghijklmnopqrstuvwxyz")
	require.Equal(t, []string{"abcdefghij", "ghijklmnop", "mnopqrstuv", "stuvwxyz"}, chunks)

	require.Empty(t, chunker.Split("   "))
	require.NotNil(t, chunker.Split(""))
}

func TestChunkerCountsRunes(t *testing.T) {
	chunker, err := NewChunker(3, 1)
	require.NoError(t, err)

	chunks := chunker.Split("ééééé")
	require.Equal(t, []string{"ééé", "ééé"}, chunks)
}

func TestNewChunkerValidates(t *testing.T) {
	_, err := NewChunker(0, 0)
	require.Error(t, err)
	_, err = NewChunker(10, 10)
	require.Error(t, err)
	_, err = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	require.NoError(t, err)
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	index, err := NewIndex("test-embed", []Chunk{
		{ID: "c0", Text: "Admissions open in June.", Embedding: []float32{1, 0, 0}},
		{ID: "c1", Text: "The library closes at 8pm.", Embedding: []float32{0, 1, 0}},
		{ID: "c2", Text: "Fees are due monthly.", Embedding: []float32{0, 0, 1}},
		{ID: "c3", Text: "Library cards are free.", Embedding: []float32{0, 0.8, 0.6}},
	})
	require.NoError(t, err)
	return index
}

func TestIndexSearchRanksByCosine(t *testing.T) {
	index := testIndex(t)

	matches, err := index.Search([]float32{0, 2, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "c1", matches[0].Chunk.ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-6)
	require.Equal(t, "c3", matches[1].Chunk.ID)
	require.InDelta(t, 0.8, matches[1].Score, 1e-6)

	all, err := index.Search([]float32{1, 1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, all, 4)

	_, err = index.Search([]float32{1, 0}, 2)
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndexRejectsMixedDimensions(t *testing.T) {
	_, err := NewIndex("m", []Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0, 0}},
	})
	require.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestIndexSaveAndLoad(t *testing.T) {
	index := testIndex(t)
	index.Source = "guide.txt"
	index.ChunkSize = DefaultChunkSize
	index.ChunkOverlap = DefaultChunkOverlap

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, index.Save(path))

	loaded, err := LoadIndex(path)
	require.NoError(t, err)
	require.Equal(t, "test-embed", loaded.Model)
	require.Equal(t, 3, loaded.Dimension)
	require.Equal(t, "guide.txt", loaded.Source)
	require.Equal(t, 4, loaded.Len())

	matches, err := loaded.Search([]float32{0, 0, 1}, 1)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(matches[0].Chunk.Text, "Fees"))

	_, err = LoadIndex(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
