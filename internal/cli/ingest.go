package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the bye-laws document",
	Long: `Extract the document page by page, embed each non-empty page and store it.
Ingestion only runs when the collection is empty; remove the store file to
rebuild after the document changes.

Examples:
  byelaws ingest
  byelaws ingest -d /srv/society`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := commandContext(cmd)

	p, err := newPipeline(ctx, cfg, GetRootDir(), false)
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Printf("Ingesting %s...\n", p.doc.Path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	progressCallback := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(startTime).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}

	result, err := p.ingest(ctx, progressCallback)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	if result.Skipped {
		fmt.Printf("Collection %s already holds %d chunks, nothing to do.\n", cfg.Store.Collection, result.Existing)
		p.warnIfStale(ctx)
		return nil
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Pages read:     %d\n", result.Pages)
	fmt.Printf("  Chunks stored:  %d\n", result.Chunks)
	fmt.Printf("  Skipped pages:  %d (no text)\n", result.Pages-result.Chunks)
	fmt.Printf("  Took:           %s\n", formatDuration(result.Duration))
	if cfg.Store.Backend != "memory" {
		fmt.Printf("\nStore: %s (collection %s)\n", cfg.StorePath(GetRootDir()), cfg.Store.Collection)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
