package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driving"
)

var (
	askTopK  int
	askPages int
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question and stream a grounded answer",
	Long: `Retrieves supporting passages for the question, prints them as numbered
citations, then streams an answer generated by the configured Ollama
model. Statements backed by a citation carry its number in brackets.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "maximum number of citations")
	askCmd.Flags().IntVar(&askPages, "pages", 0, "number of pages kept after reranking")
	rootCmd.AddCommand(askCmd)
}

// terminalSink prints citations first, then the token stream.
type terminalSink struct {
	cmd *cobra.Command
}

var _ driving.AnswerSink = (*terminalSink)(nil)

func (s *terminalSink) Citations(result *domain.RetrievalResult) error {
	printResult(s.cmd, result)
	s.cmd.Println("Answer:")
	s.cmd.Println()
	return nil
}

func (s *terminalSink) Token(token string) error {
	s.cmd.Print(token)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	opts := domain.RetrievalOptions{TopPages: askPages, TopK: askTopK}
	sink := &terminalSink{cmd: cmd}

	if err := answerService.Ask(cmd.Context(), args[0], opts, sink); err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	cmd.Println()
	return nil
}
