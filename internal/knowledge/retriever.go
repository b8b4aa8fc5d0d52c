package knowledge

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

// DefaultTopK is the number of chunks concatenated into an answer.
const DefaultTopK = 3

// Answer texts returned instead of errors when retrieval cannot run.
const (
	AnswerPrefix        = "Based on our guide:\n"
	AnswerNoMatch       = "No relevant FAQ found in the knowledge base."
	AnswerIndexMissing  = "The knowledge base is not available right now."
	AnswerSearchFailure = "Unable to search the knowledge base right now. Please try again later."
)

// Answer is the outcome of a semantic lookup.
type Answer struct {
	Text     string
	Sources  []string
	Degraded bool
}

// SemanticRetriever answers questions from the embedded guide index.
type SemanticRetriever struct {
	index    *Index
	embedder ai.Embedder
	topK     int
	logger   zerolog.Logger
}

// NewSemanticRetriever constructs a retriever. A nil index yields degraded answers.
func NewSemanticRetriever(index *Index, embedder ai.Embedder, topK int, logger zerolog.Logger) *SemanticRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &SemanticRetriever{
		index:    index,
		embedder: embedder,
		topK:     topK,
		logger:   logger.With().Str("component", "semantic_retriever").Logger(),
	}
}

// Answer embeds the question and concatenates the top-k chunks. Only an empty question is an error.
func (r *SemanticRetriever) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, ErrEmptyQuestion
	}

	matches, ok := r.search(ctx, question)
	if !ok {
		if r.index == nil || r.index.Len() == 0 {
			return Answer{Text: AnswerIndexMissing, Sources: []string{}, Degraded: true}, nil
		}
		return Answer{Text: AnswerSearchFailure, Sources: []string{}, Degraded: true}, nil
	}

	if len(matches) == 0 {
		return Answer{Text: AnswerNoMatch, Sources: []string{}}, nil
	}

	texts := make([]string, 0, len(matches))
	sources := make([]string, 0, len(matches))
	for _, match := range matches {
		texts = append(texts, match.Chunk.Text)
		sources = append(sources, match.Chunk.ID)
	}

	return Answer{
		Text:    AnswerPrefix + strings.Join(texts, "\n\n"),
		Sources: sources,
	}, nil
}

// Context returns the raw top-k chunk texts, or nil when retrieval is unavailable.
func (r *SemanticRetriever) Context(ctx context.Context, question string) []string {
	matches, ok := r.search(ctx, question)
	if !ok {
		return nil
	}
	texts := make([]string, 0, len(matches))
	for _, match := range matches {
		texts = append(texts, match.Chunk.Text)
	}
	return texts
}

func (r *SemanticRetriever) search(ctx context.Context, question string) ([]Match, bool) {
	if r.index == nil || r.index.Len() == 0 || r.embedder == nil {
		r.logger.Warn().Msg("semantic index unavailable")
		return nil, false
	}

	if model := r.embedder.Model(); r.index.Model != "" && model != "" && model != r.index.Model {
		r.logger.Error().Str("index_model", r.index.Model).Str("embedder_model", model).Msg("embedding model mismatch")
		return nil, false
	}

	vectors, err := r.embedder.Embed(ctx, []string{question})
	if err != nil || len(vectors) != 1 {
		r.logger.Warn().Err(err).Msg("failed to embed question")
		return nil, false
	}

	matches, err := r.index.Search(vectors[0], r.topK)
	if err != nil {
		r.logger.Warn().Err(err).Msg("failed to search index")
		return nil, false
	}

	return matches, true
}
