package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/github"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/output"
)

var (
	githubUsername  string
	githubSyncLimit int
)

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Preview and sync GitHub projects",
}

var githubPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the project list GET /api/github-projects would return",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readOutputOptions(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if githubUsername != "" {
			cfg.GitHub.Username = githubUsername
		}
		if cfg.GitHub.Username == "" {
			return errors.New("github.username is required (set it in config or pass --username)")
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		importer, err := newImporter(cfg, newGitHubClient(cfg, newBudget(cfg, db)))
		if err != nil {
			return err
		}
		result := importer.Import(cmd.Context())
		if len(result.Warnings) > 0 {
			observability.CLILogger.Warn("GitHub import degraded",
				zap.String("source", result.Source),
				zap.Strings("warnings", result.Warnings))
		}

		rendered, err := output.NewFormatter(opts.format).FormatImport(result)
		if err != nil {
			return err
		}
		return writeRendered(cmd, opts, "github.preview", rendered)
	},
}

var githubSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Upsert the top ranked repositories into the projects table",
	Long: `Rank the account's repositories and upsert the first --limit of them as
published projects. Projects created by hand are never overwritten.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := readOutputOptions(cmd)
		if err != nil {
			return err
		}
		if githubSyncLimit < 1 || githubSyncLimit > github.MaxSyncLimit {
			return github.ErrInvalidSyncLimit
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if githubUsername != "" {
			cfg.GitHub.Username = githubUsername
		}
		if cfg.GitHub.Username == "" {
			return errors.New("github.username is required (set it in config or pass --username)")
		}

		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		syncer := newSyncer(cfg, newGitHubClient(cfg, newBudget(cfg, db)), db)
		result, err := syncer.Sync(cmd.Context(), githubSyncLimit)
		if err != nil {
			return fmt.Errorf("github sync: %w", err)
		}
		observability.CLILogger.Info("GitHub sync complete",
			zap.String("username", result.Username),
			zap.Int("synced", result.Synced),
			zap.Int("skipped_manual", result.SkippedManualProjectSlugs))

		rendered, err := output.NewFormatter(opts.format).FormatSync(result)
		if err != nil {
			return err
		}
		return writeRendered(cmd, opts, "github.sync", rendered)
	},
}

func init() {
	githubCmd.PersistentFlags().StringVar(&githubUsername, "username", "", "GitHub account (overrides github.username)")
	githubSyncCmd.Flags().IntVar(&githubSyncLimit, "limit", github.DefaultSyncLimit, fmt.Sprintf("Number of repositories to sync (1-%d)", github.MaxSyncLimit))
	addOutputFlags(githubPreviewCmd)
	addOutputFlags(githubSyncCmd)

	githubCmd.AddCommand(githubPreviewCmd)
	githubCmd.AddCommand(githubSyncCmd)
	rootCmd.AddCommand(githubCmd)
}
