package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the corpus index",
	Long: `Walks the configured corpus directory and rebuilds the title and
full-text indexes. The previous index keeps serving queries until the
rebuild completes, then is atomically replaced.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexBuilder == nil {
		return errors.New("no corpus directory configured (set corpus.dir or ARCHIVIST_CORPUS_DIR)")
	}

	n, err := indexBuilder.Build(cmd.Context(), func(frac float64, msg string) {
		cmd.Printf("[%3.0f%%] %s\n", frac*100, msg)
	})
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Indexed %d documents into %s\n", n, index.Path())
	return nil
}
