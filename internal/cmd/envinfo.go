package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information. Secrets are reported as set or not set.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()
		log := observability.CLILogger

		log.Info("=== Folio Environment Information ===")
		log.Info("")

		identity := GetAppIdentity()
		name := "folio"
		if identity != nil && identity.BinaryName != "" {
			name = identity.BinaryName
		}
		log.Info("Application:")
		log.Info("  Name:       " + name)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig()
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		log.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		log.Info("")

		log.Info("Store:")
		log.Info("  Driver:         "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			log.Info("  URL:            " + redactURL(cfg.Store.URL))
			log.Info("  Auth Token:     " + setStatus(cfg.Store.AuthToken))
		} else {
			log.Info("  Path:           "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		log.Info("")

		log.Info("Rate Limiting:")
		log.Info("  Backend:        "+cfg.RateLimit.Backend, zap.String("ratelimit_backend", cfg.RateLimit.Backend))
		if cfg.RateLimit.Backend == "redis" {
			log.Info("  Redis URL:      " + redactURL(cfg.RateLimit.RedisURL))
		}
		rules := limiterRules(cfg)
		names := make([]string, 0, len(rules))
		for name := range rules {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rule := rules[name]
			log.Info(fmt.Sprintf("  Rule %-10s %d per %s", rule.Name+":", rule.Limit, rule.Window))
		}
		log.Info("")

		log.Info("GitHub:")
		log.Info("  Username:       " + valueOr(cfg.GitHub.Username, "(not set)"))
		log.Info("  Token:          " + setStatus(cfg.GitHub.Token))
		log.Info(fmt.Sprintf("  Max Projects:   %d", cfg.Import.MaxProjects))
		log.Info("  Fallback File:  " + valueOr(cfg.Import.FallbackFile, "(embedded)"))
		log.Info("")

		log.Info("Owner:")
		log.Info("  Password:       " + setStatus(cfg.Owner.Password))
		log.Info("  Session Secret: " + setStatus(cfg.Owner.SessionSecret))
		log.Info(fmt.Sprintf("  Secure Cookie:  %t", cfg.Owner.SecureCookie))
		log.Info("  Session TTL:    " + cfg.Owner.SessionTTL.String())
		log.Info("")

		log.Info("Notifications:")
		log.Info(fmt.Sprintf("  Enabled:        %t", cfg.Notify.Enabled()), zap.Bool("notify_enabled", cfg.Notify.Enabled()))
		log.Info("  Resend API Key: " + setStatus(cfg.Notify.ResendAPIKey))
		log.Info("  To:             " + valueOr(cfg.Notify.ToEmail, "(not set)"))
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func setStatus(secret string) string {
	if strings.TrimSpace(secret) == "" {
		return "(not set)"
	}
	return "(set)"
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// redactURL hides credentials embedded in a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return "(not set)"
	}
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return raw
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
