package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"byelaws/internal/adapter/store"
	"byelaws/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what the collection holds",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var (
	okColor   = color.New(color.FgGreen).SprintfFunc()
	warnColor = color.New(color.FgYellow).SprintfFunc()
)

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	// Dimension 0: status never writes vectors.
	st, err := openStore(cfg, GetRootDir(), 0)
	if err != nil {
		return fmt.Errorf("failed to open chunk store: %w", err)
	}
	defer st.Close()

	n, err := st.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Collection: %s (%s backend)\n", cfg.Store.Collection, cfg.Store.Backend)
	if cfg.Store.Backend != "memory" {
		fmt.Fprintf(out, "Store:      %s\n", cfg.StorePath(GetRootDir()))
	}
	if bs, ok := st.(*store.BoltStore); ok {
		if v, err := bs.SchemaVersion(); err == nil {
			fmt.Fprintf(out, "Schema:     v%d\n", v)
		}
	}
	fmt.Fprintf(out, "Chunks:     %d\n", n)

	info, err := st.Info(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		if n > 0 {
			fmt.Fprintf(out, "Index:      %s\n", warnColor("incomplete, ingestion did not finish; delete the store to rebuild"))
			return nil
		}
		fmt.Fprintln(out, "Not ingested yet. Run 'byelaws ingest'.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Source:     %s\n", info.SourcePath)
	fmt.Fprintf(out, "Embedding:  %s\n", info.EmbeddingModel)
	fmt.Fprintf(out, "Ingested:   %s\n", info.IngestedAt.Local().Format(time.DateTime))

	doc := resolveDocument(cfg, GetRootDir())
	switch {
	case doc.Fingerprint == "":
		fmt.Fprintf(out, "Document:   %s\n", warnColor("%s not found", cfg.Document.Path))
	case doc.Fingerprint != info.Fingerprint:
		fmt.Fprintf(out, "Document:   %s\n", warnColor("%s has changed since ingestion (stale)", doc.Path))
	default:
		fmt.Fprintf(out, "Document:   %s\n", okColor("up to date"))
	}
	return nil
}
