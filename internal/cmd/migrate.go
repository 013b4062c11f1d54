package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/observability"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Create or upgrade the content schema on the configured store. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}

		target := cfg.Store.Path
		if cfg.Store.URL != "" {
			target = "(remote)"
		}
		observability.CLILogger.Info("Migrations applied",
			zap.String("driver", db.Driver()),
			zap.String("target", target))
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", db.Driver())
		return err
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
