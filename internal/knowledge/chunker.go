package knowledge

import (
	"fmt"
	"strings"
)

// Default chunking parameters for guide documents.
const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100
)

// Chunker splits text into fixed-size overlapping rune windows.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker validates the window parameters.
func NewChunker(size, overlap int) (Chunker, error) {
	if size <= 0 {
		return Chunker{}, fmt.Errorf("chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return Chunker{}, fmt.Errorf("chunk overlap must be in [0, size)")
	}
	return Chunker{Size: size, Overlap: overlap}, nil
}

// Split returns the windows of text. Whitespace-only windows are skipped.
func (c Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	chunks := make([]string, 0)
	if len(runes) == 0 {
		return chunks
	}

	step := c.Size - c.Overlap
	for start := 0; start < len(runes); start += step {
		end := start + c.Size
		if end > len(runes) {
			end = len(runes)
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}

	return chunks
}
