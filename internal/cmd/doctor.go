package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/owner"
)

// checkLevel grades one doctor check.
type checkLevel int

const (
	checkOK checkLevel = iota
	checkWarn
	checkFail
)

type doctorCheck struct {
	name string
	run  func(ctx context.Context) (checkLevel, string)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check configuration, the content store, the rate limit backend, and the optional integrations.",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()
		bannerName := "doctor"
		if identity != nil && identity.BinaryName != "" {
			bannerName = identity.BinaryName + " doctor"
		}
		observability.CLILogger.Info("=== " + bannerName + " ===")
		observability.CLILogger.Info("")

		cfg, cfgErr := loadConfig()
		checks := doctorChecks(cfg, cfgErr)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		failed := 0
		for i, check := range checks {
			level, detail := check.run(ctx)
			line := fmt.Sprintf("[%d/%d] Checking %s... %s %s", i+1, len(checks), check.name, levelMark(level), detail)
			switch level {
			case checkOK:
				observability.CLILogger.Info(line)
			case checkWarn:
				observability.CLILogger.Warn(line)
			default:
				observability.CLILogger.Error(line)
				failed++
			}
		}

		observability.CLILogger.Info("")
		if failed > 0 {
			observability.CLILogger.Warn("⚠️  Some checks failed. Review the output above for details.")
			return fmt.Errorf("%d doctor check(s) failed", failed)
		}
		observability.CLILogger.Info("✅ All required checks passed.")
		return nil
	},
}

func doctorChecks(cfg *config.Config, cfgErr error) []doctorCheck {
	checks := []doctorCheck{
		{name: "Go version", run: func(context.Context) (checkLevel, string) {
			return checkOK, runtime.Version()
		}},
		{name: "Crucible access", run: func(context.Context) (checkLevel, string) {
			version := crucible.GetVersion()
			if version.Crucible == "" {
				return checkFail, "cannot access Crucible"
			}
			return checkOK, "v" + version.Crucible
		}},
		{name: "configuration", run: func(context.Context) (checkLevel, string) {
			if cfgErr != nil {
				return checkFail, cfgErr.Error()
			}
			if path := viper.ConfigFileUsed(); path != "" && fileExists(path) {
				return checkOK, path
			}
			return checkOK, "defaults and environment (no config file at " + config.DefaultConfigPath() + ")"
		}},
	}
	if cfgErr != nil {
		return checks
	}

	return append(checks,
		doctorCheck{name: "content store", run: func(ctx context.Context) (checkLevel, string) {
			db, err := openStore(ctx, cfg)
			if err != nil {
				return checkFail, err.Error()
			}
			defer db.Close() // nolint:errcheck // best-effort cleanup
			if err := db.Ping(ctx); err != nil {
				return checkFail, err.Error()
			}
			if cfg.Store.URL != "" {
				return checkOK, db.Driver() + " (remote)"
			}
			return checkOK, fmt.Sprintf("%s %s", db.Driver(), describeFile(cfg.Store.Path))
		}},
		doctorCheck{name: "rate limit backend", run: func(ctx context.Context) (checkLevel, string) {
			_, client, err := newLimiter(ctx, cfg)
			if err != nil {
				return checkFail, err.Error()
			}
			if client != nil {
				_ = client.Close()
			}
			return checkOK, cfg.RateLimit.Backend
		}},
		doctorCheck{name: "owner login", run: func(context.Context) (checkLevel, string) {
			sessions := owner.NewSessions(cfg.Owner)
			if !sessions.Configured() {
				return checkWarn, "owner.password not set; owner routes are locked"
			}
			if cfg.Owner.SessionSecret == "" {
				return checkWarn, "owner.session_secret not set; sessions are signed with the password"
			}
			return checkOK, "configured"
		}},
		doctorCheck{name: "GitHub import", run: func(context.Context) (checkLevel, string) {
			switch {
			case cfg.GitHub.Username == "":
				return checkWarn, "github.username not set; import and sync disabled"
			case cfg.GitHub.Token == "":
				return checkWarn, cfg.GitHub.Username + " (no token; pinned repositories unavailable)"
			default:
				return checkOK, cfg.GitHub.Username + " (token set)"
			}
		}},
		doctorCheck{name: "contact notifications", run: func(context.Context) (checkLevel, string) {
			if !cfg.Notify.Enabled() {
				return checkWarn, "disabled (set notify.resend_api_key and notify.to_email)"
			}
			return checkOK, "Resend → " + cfg.Notify.ToEmail
		}},
	)
}

func levelMark(level checkLevel) string {
	switch level {
	case checkOK:
		return "✅"
	case checkWarn:
		return "⚠️ "
	default:
		return "❌"
	}
}

var doctorInitForce bool

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if fileExists(configPath) && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(starterConfig()), 0600); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Config initialized at %s\n", configPath)
		return err
	},
}

func starterConfig() string {
	prefix := "FOLIO_"
	if appIdentity != nil && appIdentity.EnvPrefix != "" {
		prefix = appIdentity.EnvPrefix
	}
	lines := []string{
		"# folio config - created by 'folio doctor init'",
		"server:",
		"  host: localhost",
		"  port: 8080",
		"store:",
		"  driver: libsql",
		"ratelimit:",
		"  backend: memory",
		"github:",
		"  username: \"\"",
		"owner:",
		fmt.Sprintf("  # password and session_secret: set %sOWNER_PASSWORD and %sOWNER_SESSION_SECRET", prefix, prefix),
		"  secure_cookie: false",
		"notify:",
		fmt.Sprintf("  # resend_api_key: set %sNOTIFY_RESEND_API_KEY", prefix),
		"  to_email: \"\"",
		"og:",
		"  title: Portfolio",
		"  subtitle: Projects, writing, and experiments",
	}
	return strings.Join(lines, "\n") + "\n"
}

// describeFile reports the size of a local database file.
func describeFile(path string) string {
	if path == "" || path == ":memory:" {
		return "(in memory)"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return abs + " (not created yet)"
	}
	return fmt.Sprintf("%s (%s)", abs, formatFileSize(info.Size()))
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func init() {
	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "Overwrite an existing config file")
	doctorCmd.AddCommand(doctorInitCmd)
	rootCmd.AddCommand(doctorCmd)
}
