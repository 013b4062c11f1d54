package cmd

import (
	"context"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/core/engine"
	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/ratelimit"
)

// openStore opens the configured content database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// newBudget persists the outbound GitHub budget in the content store so it
// survives restarts and is visible to `rate-limit list`.
func newBudget(cfg *config.Config, db *store.Store) *engine.RateLimiter {
	budget := &engine.RateLimiter{Store: db}
	budget.ApplyOverrides(cfg.RateLimits)
	budget.ApplySafetyMargin(cfg.RateLimitMargin)
	return budget
}

func newGitHubClient(cfg *config.Config, budget github.Budget) *github.Client {
	return &github.Client{
		HTTPClient: &http.Client{Timeout: cfg.GitHub.Timeout},
		BaseURL:    cfg.GitHub.BaseURL,
		GraphQLURL: cfg.GitHub.GraphQLURL,
		Token:      cfg.GitHub.Token,
		Budget:     budget,
		UserAgent:  userAgent(),
	}
}

// newImporter returns nil when no GitHub username is configured.
func newImporter(cfg *config.Config, client *github.Client) (*github.Importer, error) {
	if cfg.GitHub.Username == "" {
		return nil, nil
	}
	fallback, err := github.LoadFallback(cfg.Import.FallbackFile)
	if err != nil {
		return nil, err
	}
	return &github.Importer{
		Fetcher:     client,
		Username:    cfg.GitHub.Username,
		MaxProjects: cfg.Import.MaxProjects,
		Fallback:    fallback,
	}, nil
}

// newSyncer returns nil when no GitHub username is configured.
func newSyncer(cfg *config.Config, client *github.Client, db *store.Store) *github.Syncer {
	if cfg.GitHub.Username == "" {
		return nil
	}
	return &github.Syncer{
		Fetcher:  client,
		Store:    db,
		Username: cfg.GitHub.Username,
	}
}

// newLimiter builds the public write limiter on the configured backend. The
// redis client is returned so the caller can close it and probe its health.
func newLimiter(ctx context.Context, cfg *config.Config) (*ratelimit.Limiter, *redis.Client, error) {
	if cfg.RateLimit.Backend != "redis" {
		return ratelimit.NewLimiter(ratelimit.NewMemoryStore()), nil, nil
	}

	client, err := ratelimit.OpenRedis(ctx, cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	observability.Info("Rate limiter using redis", zap.String("namespace", cfg.RateLimit.Namespace))
	return ratelimit.NewLimiter(ratelimit.NewRedisStore(client, cfg.RateLimit.Namespace)), client, nil
}

// limiterRules resolves the public write rules from config overrides.
func limiterRules(cfg *config.Config) map[string]ratelimit.Rule {
	overrides := make(map[string]ratelimit.RuleOverride, len(cfg.RateLimit.Rules))
	for name, rule := range cfg.RateLimit.Rules {
		overrides[name] = ratelimit.RuleOverride{Limit: rule.Limit, Window: rule.Window}
	}
	return ratelimit.Rules(overrides)
}

func userAgent() string {
	name := "folio"
	if appIdentity != nil && appIdentity.BinaryName != "" {
		name = appIdentity.BinaryName
	}
	version := strings.TrimSpace(versionInfo.Version)
	if version == "" {
		version = "dev"
	}
	return name + "/" + version
}
