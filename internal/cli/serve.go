package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"byelaws/internal/adapter/fs"
	"byelaws/internal/adapter/httpapi"
	"byelaws/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Ingest the document if needed and serve the HTTP API",
	Long: `Open the chunk store, ingest the document when the store is empty, then
serve questions over HTTP. The listener only starts after ingestion succeeds.

Endpoints:
  POST /ask     {"question": "..."} -> {"answer": "..."}
  GET  /health  chunk count

Examples:
  byelaws serve
  byelaws serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, GetRootDir(), true)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.ingest(ctx, nil)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	if result.Skipped {
		logger.Info("collection %s already holds %d chunks", cfg.Store.Collection, result.Existing)
	}
	p.warnIfStale(ctx)

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if cfg.Server.WatchDocument && p.doc.Fingerprint != "" {
		err := fs.Watch(ctx, p.doc.Path, func(op fsnotify.Op) {
			logger.Warn("%s changed (%s); answers use the ingested text until the store is rebuilt", p.doc.Path, op)
		})
		if err != nil {
			logger.Warn("not watching %s: %v", p.doc.Path, err)
		}
	}

	srv := httpapi.NewServer(p.answerer(), p.store, cfg.Store.Collection, cfg.Server.AllowedOrigins)
	srv.SetRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)
	if err := srv.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (as in tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
