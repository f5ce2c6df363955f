package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"byelaws/internal/domain"
)

var (
	benchQuestions []string
	benchFile      string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure retrieval quality and latency",
	Long: `Run retrieval for a set of questions and report the similarity of the pages
found, so embedding models and extractors can be compared on the same document.

Examples:
  byelaws bench -q "Can I keep a dog?" -q "Who approves renovations?"
  byelaws bench --file questions.txt`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringArrayVarP(&benchQuestions, "question", "q", nil, "question to retrieve for (repeatable)")
	benchCmd.Flags().StringVar(&benchFile, "file", "", "file with one question per line")
}

func runBench(cmd *cobra.Command, args []string) error {
	questions := benchQuestions
	if benchFile != "" {
		f, err := os.Open(benchFile)
		if err != nil {
			return fmt.Errorf("failed to open questions: %w", err)
		}
		defer f.Close()
		fromFile, err := readQuestions(f)
		if err != nil {
			return err
		}
		questions = append(questions, fromFile...)
	}
	if len(questions) == 0 {
		return fmt.Errorf("no questions given; use -q or --file")
	}

	ctx := commandContext(cmd)
	p, err := newPipeline(ctx, GetConfig(), GetRootDir(), false)
	if err != nil {
		return err
	}
	defer p.Close()

	if _, err := p.ingest(ctx, nil); err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	out := cmd.OutOrStdout()
	n, _ := p.store.Count(ctx)

	fmt.Fprintln(out, "RETRIEVAL BENCHMARK")
	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintf(out, "Chunks indexed: %d\n", n)
	fmt.Fprintf(out, "Model: %s (dimension %d)\n\n", p.embedder.ModelName(), p.embedder.Dimension())

	retriever := p.retriever()
	var totalTop1 float64
	var totalLatency time.Duration
	var answered int

	for _, q := range questions {
		start := time.Now()
		results, err := retriever.Retrieve(ctx, q)
		elapsed := time.Since(start)
		if err != nil {
			return fmt.Errorf("retrieval failed for %q: %w", q, err)
		}
		totalLatency += elapsed

		fmt.Fprintf(out, "Q: %s (%s)\n", q, elapsed.Round(time.Millisecond))
		if len(results) == 0 {
			fmt.Fprintf(out, "   %s\n\n", domain.NoContextFound)
			continue
		}

		for i, r := range results {
			similarity := 1 - r.Distance
			preview := strings.ReplaceAll(truncate(r.Chunk.Text, 100), "\n", " ")
			fmt.Fprintf(out, "%d. [%s %.3f] %s p.%d  %s\n", i+1, rating(similarity), similarity, r.Chunk.ID, r.Chunk.Page, preview)
		}
		fmt.Fprintln(out)

		totalTop1 += 1 - results[0].Distance
		answered++
	}

	fmt.Fprintln(out, strings.Repeat("=", 70))
	fmt.Fprintf(out, "Questions:          %d\n", len(questions))
	fmt.Fprintf(out, "Mean latency:       %s\n", (totalLatency / time.Duration(len(questions))).Round(time.Millisecond))
	if answered > 0 {
		fmt.Fprintf(out, "Mean top-1 similarity: %.3f\n", totalTop1/float64(answered))
	}
	return nil
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

// readQuestions reads one question per line, skipping blanks and # comments.
func readQuestions(r io.Reader) ([]string, error) {
	var questions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	return questions, scanner.Err()
}
