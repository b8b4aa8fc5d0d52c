package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

// DefaultEmbedBatch is the number of chunks sent per embedding request.
const DefaultEmbedBatch = 64

// ErrUnsupportedSource indicates the guide file is not plain text.
var ErrUnsupportedSource = errors.New("unsupported guide format")

// ReadSource loads a guide document, accepting text/plain content only.
func ReadSource(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read guide: %w", err)
	}

	detected := mimetype.Detect(raw)
	if !detected.Is("text/plain") {
		return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedSource, filepath.Base(path), detected.String())
	}

	return string(raw), nil
}

// BuildOptions tunes index construction.
type BuildOptions struct {
	Source  string
	Chunker Chunker
	Batch   int
}

// BuildIndex chunks text and embeds every chunk with the embedder's model.
func BuildIndex(ctx context.Context, embedder ai.Embedder, text string, opts BuildOptions) (*Index, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if opts.Chunker.Size == 0 {
		opts.Chunker = Chunker{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap}
	}
	if opts.Batch <= 0 {
		opts.Batch = DefaultEmbedBatch
	}

	texts := opts.Chunker.Split(text)
	if len(texts) == 0 {
		return nil, fmt.Errorf("guide %q has no content", opts.Source)
	}

	chunks := make([]Chunk, 0, len(texts))
	for start := 0; start < len(texts); start += opts.Batch {
		end := start + opts.Batch
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("embed chunks %d-%d: got %d vectors", start, end-1, len(vectors))
		}

		for i, vector := range vectors {
			chunks = append(chunks, Chunk{
				ID:        chunkID(opts.Source, start+i),
				Text:      texts[start+i],
				Embedding: vector,
			})
		}
	}

	index, err := NewIndex(embedder.Model(), chunks)
	if err != nil {
		return nil, err
	}
	index.ChunkSize = opts.Chunker.Size
	index.ChunkOverlap = opts.Chunker.Overlap
	index.Source = opts.Source
	index.BuiltAt = time.Now().UTC()
	return index, nil
}

func chunkID(source string, n int) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if base == "" || base == "." {
		base = "chunk"
	}
	return fmt.Sprintf("%s-%d", base, n)
}
