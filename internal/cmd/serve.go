package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/notify"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/ogcard"
	"github.com/folio/folio/internal/owner"
	"github.com/folio/folio/internal/ratelimit"
	"github.com/folio/folio/internal/server"
	"github.com/folio/folio/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errors.New("telemetry system not initialized")
	}
	return nil
}

// identityHealthChecker validates app identity metadata
type identityHealthChecker struct {
	binaryName string
	envPrefix  string
	configName string
}

func (i identityHealthChecker) CheckHealth(ctx context.Context) error {
	switch {
	case i.binaryName == "":
		return errors.New("app identity missing binary name")
	case i.envPrefix == "":
		return errors.New("app identity missing env prefix")
	case i.configName == "":
		return errors.New("app identity missing config name")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the portfolio API with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read and validate the config file (restart to apply)

The server will cleanly shut down the HTTP server, close the store, and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}

		identity := GetAppIdentity()
		namespace := identity.TelemetryNamespace()

		observability.InitServerLogger(identity.BinaryName, cfg.Logging, namespace)

		if err := observability.InitMetrics(identity.BinaryName, cfg.Metrics, namespace); err != nil {
			observability.ServerLogger.Error("Failed to initialize metrics", zap.Error(err))
			return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
		}
		metrics.SetServerStartTime(time.Now().Unix())

		db, err := openStore(ctx, cfg)
		if err != nil {
			return errwrap.WrapServiceUnavailable(ctx, err, "store unavailable")
		}

		limiter, redisClient, err := newLimiter(ctx, cfg)
		if err != nil {
			_ = db.Close()
			return errwrap.WrapServiceUnavailable(ctx, err, "rate limit backend unavailable")
		}

		client := newGitHubClient(cfg, newBudget(cfg, db))
		api := &handlers.API{
			Store:    db,
			Limiter:  limiter,
			Rules:    limiterRules(cfg),
			Notifier: notify.New(cfg.Notify),
			Sessions: owner.NewSessions(cfg.Owner),
			OG:       cfg.OG,
		}
		importer, err := newImporter(cfg, client)
		if err != nil {
			_ = db.Close()
			return errwrap.WrapInternal(ctx, err, "GitHub fallback catalog invalid")
		}
		if importer != nil {
			api.Importer = importer
		}
		if syncer := newSyncer(cfg, client, db); syncer != nil {
			api.Syncer = syncer
		}
		if renderer, err := ogcard.NewRenderer(); err != nil {
			observability.Warn("Open Graph renderer unavailable", zap.Error(err))
		} else {
			api.Cards = renderer
		}

		if !api.Sessions.Configured() {
			observability.Warn("Owner password not set; owner routes will reject every request")
		}
		if cfg.GitHub.Username == "" {
			observability.Warn("github.username not set; GitHub import and sync are disabled")
		}
		if !cfg.Notify.Enabled() {
			observability.Info("Contact email notifications disabled")
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", identity.BinaryName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("store_driver", db.Driver()),
			zap.String("ratelimit_backend", cfg.RateLimit.Backend),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", observability.GetMetricsPort()))

		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("store", handlers.CheckerFunc(db.Ping))
		hm.RegisterOptional("telemetry", telemetryHealthChecker{})
		hm.RegisterOptional("app_identity", identityHealthChecker{
			binaryName: identity.BinaryName,
			envPrefix:  identity.EnvPrefix,
			configName: identity.ConfigName,
		})
		if redisClient != nil {
			hm.RegisterOptional("redis", ratelimit.NewRedisStore(redisClient, cfg.RateLimit.Namespace))
		}

		srv := server.New(cfg.Server, server.Deps{
			API:      api,
			Health:   hm,
			Identity: identity,
			Build:    versionInfo,
			Backends: handlers.Backends{
				Store:     db.Driver(),
				RateLimit: cfg.RateLimit.Backend,
			},
		})

		// Shutdown handlers run LIFO: HTTP server, then store and redis, then logger.
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					observability.Warn("Redis close failed", zap.Error(err))
				}
			}
			if err := db.Close(); err != nil {
				return errwrap.WrapInternal(ctx, err, "store close failed")
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, srv.ShutdownTimeout())
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: re-reading config")

			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "config reload failed")
			}
			if _, err := loadConfig(); err != nil {
				observability.ServerLogger.Error("Reloaded config is invalid", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration validated; restart to apply",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
