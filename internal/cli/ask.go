package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var askQuestion string

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question",
	Long: `Answer a single question on stdout, ingesting the document first if the
collection is empty.

Examples:
  byelaws ask -q "Can I keep a pet dog in my apartment?"`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	p, err := newPipeline(ctx, GetConfig(), GetRootDir(), true)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.ingest(ctx, nil); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	answer, err := p.answerer().Answer(ctx, askQuestion)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
