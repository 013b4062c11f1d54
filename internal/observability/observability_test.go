package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/folio/folio/internal/config"
)

func resetLoggers(t *testing.T) {
	t.Helper()
	cli, server := CLILogger, ServerLogger
	t.Cleanup(func() {
		CLILogger, ServerLogger = cli, server
	})
}

func TestInitServerLoggerProfiles(t *testing.T) {
	resetLoggers(t)

	InitServerLogger("folio", config.LoggingConfig{Level: "debug", Profile: "structured", Environment: "test"}, "folio")
	require.NotNil(t, ServerLogger)
	ServerLogger.Info("structured logger ready", zap.String("component", "test"))

	InitServerLogger("folio", config.LoggingConfig{Level: "warn", Profile: "simple"}, "")
	require.NotNil(t, ServerLogger)
	ServerLogger.Warn("simple logger ready")
}

func TestLoggerPrefersServerLogger(t *testing.T) {
	resetLoggers(t)

	CLILogger, ServerLogger = nil, nil
	assert.Nil(t, Logger())
	assert.NotPanics(t, func() { Warn("dropped", zap.String("k", "v")) })

	InitCLILogger("folio", true)
	assert.Same(t, CLILogger, Logger())

	InitServerLogger("folio", config.LoggingConfig{}, "")
	assert.Same(t, ServerLogger, Logger())
	Info("routed to the server logger")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		" warn ":  "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"":        "INFO",
		"loud":    "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestInitMetricsDisabledIsNoop(t *testing.T) {
	original := TelemetrySystem
	t.Cleanup(func() { TelemetrySystem = original })
	TelemetrySystem = nil

	require.NoError(t, InitMetrics("folio", config.MetricsConfig{Enabled: false, Port: 0}, ""))
	assert.Nil(t, TelemetrySystem)
}

func TestResolvePort(t *testing.T) {
	port, err := resolvePort("[::]:9191")
	require.NoError(t, err)
	assert.Equal(t, 9191, port)

	_, err = resolvePort("no-port")
	assert.Error(t, err)
}
