package knowledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/viterin/vek/vek32"
)

// ErrDimensionMismatch indicates a query vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Chunk is one embedded passage of the guide.
type Chunk struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Index is the on-disk document chunk index produced by the indexer.
type Index struct {
	Model        string    `json:"model"`
	Dimension    int       `json:"dimension"`
	ChunkSize    int       `json:"chunk_size"`
	ChunkOverlap int       `json:"chunk_overlap"`
	Source       string    `json:"source"`
	BuiltAt      time.Time `json:"built_at"`
	Chunks       []Chunk   `json:"chunks"`

	norms []float64
}

// Match is a scored chunk.
type Match struct {
	Chunk Chunk
	Score float64
}

// NewIndex validates chunk dimensions and precomputes norms.
func NewIndex(model string, chunks []Chunk) (*Index, error) {
	index := &Index{Model: model, Chunks: chunks, BuiltAt: time.Now().UTC()}
	if len(chunks) > 0 {
		index.Dimension = len(chunks[0].Embedding)
	}
	if err := index.prepare(); err != nil {
		return nil, err
	}
	return index, nil
}

// LoadIndex reads an index file written by Save.
func LoadIndex(path string) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if err := index.prepare(); err != nil {
		return nil, err
	}
	return &index, nil
}

// Save writes the index as JSON.
func (ix *Index) Save(path string) error {
	raw, err := json.Marshal(ix)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// Len returns the number of chunks.
func (ix *Index) Len() int {
	return len(ix.Chunks)
}

// Search returns the k chunks most similar to the query by cosine similarity, best first.
func (ix *Index) Search(query []float32, k int) ([]Match, error) {
	if k <= 0 || len(ix.Chunks) == 0 {
		return []Match{}, nil
	}
	if len(query) != ix.Dimension {
		return nil, fmt.Errorf("%w: query %d, index %d", ErrDimensionMismatch, len(query), ix.Dimension)
	}

	queryNorm := math.Sqrt(float64(vek32.Dot(query, query)))
	matches := make([]Match, 0, len(ix.Chunks))
	for i, chunk := range ix.Chunks {
		score := 0.0
		if queryNorm > 0 && ix.norms[i] > 0 {
			score = float64(vek32.Dot(query, chunk.Embedding)) / (queryNorm * ix.norms[i])
		}
		matches = append(matches, Match{Chunk: chunk, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func (ix *Index) prepare() error {
	if len(ix.Chunks) > 0 && ix.Dimension == 0 {
		ix.Dimension = len(ix.Chunks[0].Embedding)
	}

	ix.norms = make([]float64, len(ix.Chunks))
	for i, chunk := range ix.Chunks {
		if len(chunk.Embedding) != ix.Dimension {
			return fmt.Errorf("%w: chunk %s has %d values, index %d", ErrDimensionMismatch, chunk.ID, len(chunk.Embedding), ix.Dimension)
		}
		ix.norms[i] = math.Sqrt(float64(vek32.Dot(chunk.Embedding, chunk.Embedding)))
	}
	return nil
}
