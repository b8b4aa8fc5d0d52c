package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildIndexEmbedsInBatches(t *testing.T) {
	embedder := &fakeEmbedder{model: "test-embed"}
	chunker, err := NewChunker(10, 4)
	require.NoError(t, err)

	index, err := BuildIndex(context.Background(), embedder, "abcdefghijklmnopqrstuvwxyz", BuildOptions{
		Source:  "docs/guide.txt",
		Chunker: chunker,
		Batch:   3,
	})
	require.NoError(t, err)

	require.Equal(t, 2, embedder.calls)
	require.Equal(t, 4, index.Len())
	require.Equal(t, "test-embed", index.Model)
	require.Equal(t, 3, index.Dimension)
	require.Equal(t, 10, index.ChunkSize)
	require.Equal(t, 4, index.ChunkOverlap)
	require.Equal(t, "docs/guide.txt", index.Source)
	require.Equal(t, "guide-0", index.Chunks[0].ID)
	require.Equal(t, "guide-3", index.Chunks[3].ID)
	require.Equal(t, "stuvwxyz", index.Chunks[3].Text)
}

func TestBuildIndexFailures(t *testing.T) {
	_, err := BuildIndex(context.Background(), &fakeEmbedder{}, "   ", BuildOptions{Source: "empty.txt"})
	require.Error(t, err)

	upstream := errors.New("quota exceeded")
	_, err = BuildIndex(context.Background(), &fakeEmbedder{err: upstream}, "some guide text", BuildOptions{})
	require.ErrorIs(t, err, upstream)

	_, err = BuildIndex(context.Background(), nil, "text", BuildOptions{})
	require.Error(t, err)
}

func TestBuildIndexRoundTripsThroughDisk(t *testing.T) {
	index, err := BuildIndex(context.Background(), &fakeEmbedder{model: "test-embed"}, "Library opens at nine.", BuildOptions{Source: "guide.md"})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.json")
	require.NoError(t, index.Save(path))

	loaded, err := LoadIndex(path)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	require.Equal(t, "Library opens at nine.", loaded.Chunks[0].Text)
	require.Equal(t, DefaultChunkSize, loaded.ChunkSize)
}

func TestReadSourceAcceptsPlainTextOnly(t *testing.T) {
	dir := t.TempDir()

	text := filepath.Join(dir, "guide.txt")
	require.NoError(t, os.WriteFile(text, []byte("Admissions open in June.\nFees are due monthly.\n"), 0o600))
	content, err := ReadSource(text)
	require.NoError(t, err)
	require.Contains(t, content, "Admissions")

	image := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	_, err = ReadSource(image)
	require.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = ReadSource(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}
