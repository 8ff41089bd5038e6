// Package cli implements the archivist command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvidae-labs/archivist/internal/adapters/driven/archive/fs"
	"github.com/corvidae-labs/archivist/internal/adapters/driven/cache/memory"
	"github.com/corvidae-labs/archivist/internal/adapters/driven/config/file"
	ollamaembed "github.com/corvidae-labs/archivist/internal/adapters/driven/embedding/ollama"
	"github.com/corvidae-labs/archivist/internal/adapters/driven/index/sqlite"
	ollamallm "github.com/corvidae-labs/archivist/internal/adapters/driven/llm/ollama"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
	"github.com/corvidae-labs/archivist/internal/core/services"
	"github.com/corvidae-labs/archivist/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool

	cfg file.Config

	index            *sqlite.Index
	archiveReader    driven.ArchiveReader
	retrievalService driving.RetrievalService
	answerService    driving.AnswerService
	suggestService   driven.Suggester
	indexBuilder     driving.IndexBuilder

	stopIndexWatch func()
)

var rootCmd = &cobra.Command{
	Use:   "archivist",
	Short: "Grounded question answering over a local document corpus",
	Long: `Archivist retrieves ranked, citation-numbered passages from a local
document corpus and optionally streams grounded answers generated by a
local Ollama model.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		teardown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.archivist/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// initServices loads configuration and wires the retrieval pipeline.
// Missing backends degrade rather than fail: commands report what is
// unavailable when they need it.
func initServices(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	var err error
	cfg, err = file.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	index, err = sqlite.Open(cfg.Corpus.IndexDir)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	if cfg.Corpus.WatchIndex {
		stop, err := index.Watch()
		if err != nil {
			logger.Warn("index watch unavailable: %v", err)
		} else {
			stopIndexWatch = stop
		}
	}
	suggestService = index

	rc := cfg.Pipeline().Normalise()
	chunker := services.NewSectionChunker(rc.ChunkTokens, rc.ChunkOverlap)

	if cfg.Corpus.Dir != "" {
		archive, err := fs.New(cfg.Corpus.Dir)
		if err != nil {
			return fmt.Errorf("opening corpus: %w", err)
		}
		archiveReader = archive
		indexBuilder = sqlite.NewBuilder(index, archive, chunker)
	}

	embedder := ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.EmbedModel,
	})
	llm := ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.ChatModel,
	})

	candidates := services.NewCandidateGenerator(
		index, index, memory.NewCandidateCache(rc.SuggestCacheSize), rc.SuggestionLimit)
	pages := services.NewPageReranker(
		embedder, archiveReader, memory.NewLeadCache(rc.LeadCacheSize), chunker, rc.EmbedParallelism)
	sections := services.NewSectionReranker(embedder, rc.EmbedParallelism)

	retrievalService = services.NewRetrievalOrchestrator(
		candidates, pages, chunker, sections, index, archiveReader, embedder, rc)
	answerService = services.NewAnswerService(retrievalService, llm, cfg.Retrieval.MaxContextTokens)

	return nil
}

func teardown() {
	if stopIndexWatch != nil {
		stopIndexWatch()
		stopIndexWatch = nil
	}
	if index != nil {
		index.Close()
	}
}
