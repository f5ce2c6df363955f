package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"byelaws/internal/domain"
	"byelaws/internal/usecase"
)

var (
	contextQuestion string
	contextJSON     bool
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the pages retrieved for a question",
	Long: `Print the chunks that would be attached to a question, nearest first, with
their cosine distance and source page. Nothing is sent to the generative model.

Examples:
  byelaws context -q "parking for visitors"
  byelaws context -q "pets" --json`,
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.Flags().StringVarP(&contextQuestion, "question", "q", "", "question to retrieve for (required)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output as JSON")
	contextCmd.MarkFlagRequired("question")
}

// ContextResult is one retrieved chunk in command output.
type ContextResult struct {
	ID       string  `json:"id"`
	Page     int     `json:"page"`
	Distance float64 `json:"distance"`
	Text     string  `json:"text"`
}

func runContext(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	p, err := newPipeline(ctx, GetConfig(), GetRootDir(), false)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.ingest(ctx, nil); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	chunks, err := p.retriever().Retrieve(ctx, contextQuestion)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	results := toContextResults(chunks)

	if contextJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, domain.NoContextFound)
		return nil
	}

	for i, r := range results {
		fmt.Fprintf(out, "[%d] %s (page %d, distance %.4f)\n", i+1, r.ID, r.Page, r.Distance)
		fmt.Fprintf(out, "%s\n\n", truncate(r.Text, 400))
	}
	fmt.Fprintf(out, "Context sent to the model: %d characters\n", len(usecase.JoinContext(chunks)))
	return nil
}

func toContextResults(chunks []domain.ScoredChunk) []ContextResult {
	results := make([]ContextResult, len(chunks))
	for i, c := range chunks {
		results[i] = ContextResult{
			ID:       c.Chunk.ID,
			Page:     c.Chunk.Page,
			Distance: c.Distance,
			Text:     c.Chunk.Text,
		}
	}
	return results
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
