package config

import (
	"time"
)

// Config represents the complete application configuration. Values are
// layered: viper defaults, the YAML config file, .env files, FOLIO_*
// environment variables, then bound flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Import    ImportConfig    `mapstructure:"import"`
	Owner     OwnerConfig     `mapstructure:"owner"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	OG        OGConfig        `mapstructure:"og"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`

	// RateLimits overrides the per-minute budget of upstream endpoints,
	// keyed by endpoint ("github" is an alias for api.github.com).
	RateLimits      map[string]int `mapstructure:"rate_limits"`
	RateLimitMargin float64        `mapstructure:"rate_limit_margin"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken enables POST /admin/signal when set.
	AdminToken string `mapstructure:"admin_token"`
}

// StoreConfig selects the content database. Driver is libsql (local file,
// :memory:, or remote URL with token) or postgres (URL is a lib/pq DSN).
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// RateLimitConfig configures throttling of the public write endpoints.
type RateLimitConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend   string `mapstructure:"backend"`
	RedisURL  string `mapstructure:"redis_url"`
	Namespace string `mapstructure:"namespace"`

	// Rules overrides limit and window per rule name (analytics, contact).
	Rules map[string]RuleConfig `mapstructure:"rules"`
}

// RuleConfig overrides one rate limit rule. Zero values keep the default.
type RuleConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// GitHubConfig points the import pipeline at a GitHub account.
type GitHubConfig struct {
	Username   string        `mapstructure:"username"`
	Token      string        `mapstructure:"token"`
	BaseURL    string        `mapstructure:"base_url"`
	GraphQLURL string        `mapstructure:"graphql_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ImportConfig shapes the public GitHub project list.
type ImportConfig struct {
	MaxProjects  int    `mapstructure:"max_projects"`
	FallbackFile string `mapstructure:"fallback_file"`
}

// OwnerConfig holds the single owner's credentials and session settings.
type OwnerConfig struct {
	Password      string        `mapstructure:"password"`
	SessionSecret string        `mapstructure:"session_secret"`
	SecureCookie  bool          `mapstructure:"secure_cookie"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
}

// NotifyConfig configures contact form email delivery through Resend.
// Delivery is disabled unless both ResendAPIKey and ToEmail are set.
type NotifyConfig struct {
	ResendAPIKey string        `mapstructure:"resend_api_key"`
	ToEmail      string        `mapstructure:"to_email"`
	FromEmail    string        `mapstructure:"from_email"`
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Enabled reports whether email delivery is configured.
func (n NotifyConfig) Enabled() bool {
	return n.ResendAPIKey != "" && n.ToEmail != ""
}

// OGConfig holds default Open Graph card text.
type OGConfig struct {
	Title    string `mapstructure:"title"`
	Subtitle string `mapstructure:"subtitle"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles:
// - SIMPLE: Console output only (CLI commands)
// - STRUCTURED: JSON sinks with correlation IDs (API server)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	Profile string `mapstructure:"profile"`

	// Environment is attached to every structured log line
	Environment string `mapstructure:"environment"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus exporter port. The main HTTP server
	// proxies it at /metrics.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
