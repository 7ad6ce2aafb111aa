package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-studio/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the headline, generation, recipe, travel preset and profile endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	deps, cleanup, err := server.NewDeps(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer cleanup()

	for feature, reason := range deps.Missing {
		logger.Warn().Str("feature", feature).Err(reason).Msg("feature disabled")
	}

	return server.New(deps).Start()
}
