package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvidae-labs/archivist/internal/core/domain"
)

var (
	retrieveTopK  int
	retrievePages int
	retrieveJSON  bool
	retrievePath  string
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Retrieve ranked passages for a question",
	Long: `Resolves a question into a ranked, citation-numbered set of passages
from the local corpus, without generating an answer.

Use --path to rank the passages of a single named page instead of
searching the whole corpus.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "maximum number of citations")
	retrieveCmd.Flags().IntVar(&retrievePages, "pages", 0, "number of pages kept after reranking")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output result as JSON")
	retrieveCmd.Flags().StringVar(&retrievePath, "path", "", "search within a single page path")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	query := args[0]

	var (
		result *domain.RetrievalResult
		err    error
	)
	if retrievePath != "" {
		result, err = retrievalService.RetrieveInPath(cmd.Context(), retrievePath, query, retrieveTopK)
	} else {
		result, err = retrievalService.Retrieve(cmd.Context(), query, domain.RetrievalOptions{
			TopPages: retrievePages,
			TopK:     retrieveTopK,
		})
	}
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *domain.RetrievalResult) {
	if len(result.Citations) == 0 {
		cmd.Println("No supporting passages found.")
		return
	}

	cmd.Printf("Citations (%s):\n\n", result.ExitReason)
	for _, rc := range result.Citations {
		cmd.Printf("  [%d] %s - %s (%.2f)\n", rc.CitationID, rc.Chunk.ParentTitle, rc.Chunk.SectionLabel, rc.Score)
		cmd.Printf("      %s\n", rc.Chunk.Snippet(30))
		cmd.Println()
	}
}
