// Package main provides the content_studio command: the HTTP API server plus CLI access to
// the headline digest and the article generator.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jonathan/content-studio/internal/config"
	"github.com/jonathan/content-studio/internal/logging"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "content_studio",
	Short: "Content Studio API server and tools",
	Long:  "Content Studio aggregates and ranks news headlines and drafts cited articles, recipes and travel pieces with an LLM.",
	// Config is loaded for every subcommand so flags and the environment agree.
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to an optional YAML tuning file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print a summary box to stderr")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
