package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/campus-admin-api/internal/config"
	"github.com/noah-isme/campus-admin-api/internal/knowledge"
	"github.com/noah-isme/campus-admin-api/pkg/ai"
)

var (
	sourcePath   string
	outputPath   string
	chunkSize    int
	chunkOverlap int
	embedBatch   int
)

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build the semantic index for the campus guide",
	Long: `Build the semantic index used by /api/v1/knowledge/search and the assistant.

The guide must be a plain-text document. It is split into overlapping windows,
embedded with the configured embedding model and written as JSON.

Examples:
  indexer --source docs/guide.txt
  indexer --source docs/guide.txt --output data/index.json --chunk-size 800`,
	SilenceUsage: true,
	RunE:         runIndex,
}

func init() {
	rootCmd.Flags().StringVarP(&sourcePath, "source", "s", "", "plain-text guide to index (required)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "index file to write (defaults to knowledge.index_path)")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", knowledge.DefaultChunkSize, "runes per chunk")
	rootCmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", knowledge.DefaultChunkOverlap, "runes shared by adjacent chunks")
	rootCmd.Flags().IntVar(&embedBatch, "batch", knowledge.DefaultEmbedBatch, "chunks per embedding request")
	_ = rootCmd.MarkFlagRequired("source")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIndex(cmd *cobra.Command, _ []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.LoadAI()
	if err != nil {
		return err
	}
	if !cfg.AIEnabled() {
		return fmt.Errorf("an embedding api key is required (CAMPUS_AI_API_KEY or OPENAI_API_KEY)")
	}
	if outputPath == "" {
		outputPath = cfg.KnowledgeIndexPath
	}

	chunker, err := knowledge.NewChunker(chunkSize, chunkOverlap)
	if err != nil {
		return err
	}

	text, err := knowledge.ReadSource(sourcePath)
	if err != nil {
		return err
	}

	client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:         cfg.AIAPIKey,
		BaseURL:        cfg.AIBaseURL,
		EmbeddingModel: cfg.AIEmbeddingModel,
		Timeout:        cfg.AITimeout,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	index, err := knowledge.BuildIndex(cmd.Context(), client, text, knowledge.BuildOptions{
		Source:  sourcePath,
		Chunker: chunker,
		Batch:   embedBatch,
	})
	if err != nil {
		return err
	}

	if err := index.Save(outputPath); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	logger.Info().
		Str("source", sourcePath).
		Str("output", outputPath).
		Str("model", index.Model).
		Int("chunks", index.Len()).
		Int("dimension", index.Dimension).
		Msg("index built")
	return nil
}
