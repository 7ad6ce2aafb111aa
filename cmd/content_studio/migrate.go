package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/content-studio/internal/db"
)

var migratePrint bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the profiles and travel_presets tables",
	Long:  "Applies the embedded schema to the Supabase Postgres database named by SUPABASE_DB_URL. The schema is idempotent.",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migratePrint, "print", false, "Print the schema instead of applying it")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migratePrint {
		_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
		return err
	}
	if cfg.Supabase.DatabaseURL == "" {
		return fmt.Errorf("SUPABASE_DB_URL environment variable is required")
	}

	database, err := db.Connect(cmd.Context(), cfg.Supabase.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(cmd.Context()); err != nil {
		return err
	}
	logger.Info().Msg("schema applied")
	return nil
}
