package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"byelaws/config"
	"byelaws/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "byelaws",
	Short: "ByeLaws Assistant - answer questions about your society's bye-laws",
	Long: `byelaws indexes a society's bye-laws document page by page, embeds each page,
and answers residents' questions with a generative model grounded on the
three closest pages.

Example usage:
  byelaws ingest                         # Index byelaws.pdf once
  byelaws serve                          # Serve POST /ask on :5000
  byelaws ask -q "Can I keep a dog?"     # One-shot answer
  byelaws context -q "pets"              # Show retrieved pages`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		// Secrets may live in a .env next to the document; a missing file is fine.
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := logger.ParseLevel(cfg.Logging.Level)
		if verbose {
			level = logger.LevelDebug
		}
		logger.SetLevel(level)

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./byelaws.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
