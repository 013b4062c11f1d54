package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	BindEnv(v, "FOLIO_")
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, "libsql", cfg.Store.Driver)
	assert.Equal(t, "folio.db", filepath.Base(cfg.Store.Path))

	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Equal(t, 8, cfg.Import.MaxProjects)
	assert.Equal(t, 14*24*time.Hour, cfg.Owner.SessionTTL)
	assert.Equal(t, "https://api.resend.com/emails", cfg.Notify.Endpoint)
	assert.False(t, cfg.Notify.Enabled())
	assert.InDelta(t, 0.9, cfg.RateLimitMargin, 0.0001)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)

	assert.Same(t, cfg, GetConfig())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("FOLIO_SERVER_PORT", "9999")
	t.Setenv("FOLIO_GITHUB_USERNAME", " octocat ")
	t.Setenv("FOLIO_OWNER_PASSWORD", "hunter22")
	t.Setenv("FOLIO_NOTIFY_RESEND_API_KEY", "re_test")
	t.Setenv("FOLIO_NOTIFY_TO_EMAIL", "owner@example.com")
	t.Setenv("FOLIO_RATE_LIMIT_MARGIN", "0.5")
	t.Setenv("FOLIO_GITHUB_TIMEOUT", "3s")

	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "octocat", cfg.GitHub.Username)
	assert.Equal(t, "hunter22", cfg.Owner.Password)
	assert.True(t, cfg.Notify.Enabled())
	assert.InDelta(t, 0.5, cfg.RateLimitMargin, 0.0001)
	assert.Equal(t, 3*time.Second, cfg.GitHub.Timeout)
}

func TestLoadRuleOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ratelimit:
  rules:
    contact:
      limit: 2
      window: 5m
rate_limits:
  github: 20
`), 0o600))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)

	require.Contains(t, cfg.RateLimit.Rules, "contact")
	assert.Equal(t, 2, cfg.RateLimit.Rules["contact"].Limit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Rules["contact"].Window)
	assert.Equal(t, 20, cfg.RateLimits["github"])
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"unknown driver":        func(v *viper.Viper) { v.Set("store.driver", "mysql") },
		"postgres without url":  func(v *viper.Viper) { v.Set("store.driver", "postgres") },
		"redis without url":     func(v *viper.Viper) { v.Set("ratelimit.backend", "redis") },
		"unknown backend":       func(v *viper.Viper) { v.Set("ratelimit.backend", "memcached") },
		"margin above one":      func(v *viper.Viper) { v.Set("rate_limit_margin", 1.5) },
		"negative max projects": func(v *viper.Viper) { v.Set("import.max_projects", -1) },
		"port out of range":     func(v *viper.Viper) { v.Set("server.port", 70000) },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := newTestViper(t)
			mutate(v)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("FOLIO_OG_TITLE=Local Title\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FOLIO_OG_TITLE=Shared Title\nFOLIO_OG_SUBTITLE=Shared Subtitle\n"), 0o600))

	t.Setenv("FOLIO_OG_TITLE", "")
	t.Setenv("FOLIO_OG_SUBTITLE", "")
	require.NoError(t, os.Unsetenv("FOLIO_OG_TITLE"))
	require.NoError(t, os.Unsetenv("FOLIO_OG_SUBTITLE"))

	loaded, err := LoadDotEnv(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	cfg, err := Load(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, "Local Title", cfg.OG.Title)
	assert.Equal(t, "Shared Subtitle", cfg.OG.Subtitle)
}

func TestLoadDotEnvMissingFiles(t *testing.T) {
	loaded, err := LoadDotEnv(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
