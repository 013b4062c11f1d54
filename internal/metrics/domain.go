package metrics

import (
	"strconv"
	"time"

	"github.com/folio/folio/internal/observability"
)

// Domain metric names.
const (
	RateLimitChecksTotal      = "ratelimit_checks_total"
	GitHubImportTotal         = "github_import_total"
	GitHubSyncProjectsTotal   = "github_sync_projects_total"
	ContactNotificationsTotal = "contact_notifications_total"
	AnalyticsEventsTotal      = "analytics_events_total"

	HealthCheckTotal    = "health_check_total"
	HealthCheckDuration = "health_check_duration_ms"
	ServerStartTime     = "server_start_time_seconds"
)

func counter(name string, value float64, tags map[string]string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(name, value, tags)
}

// RecordRateLimitCheck counts one limiter decision for rule.
func RecordRateLimitCheck(rule string, allowed bool) {
	counter(RateLimitChecksTotal, 1, map[string]string{
		"rule":    rule,
		"allowed": strconv.FormatBool(allowed),
	})
}

// RecordGitHubImport counts one import by the source that served it.
func RecordGitHubImport(source string) {
	counter(GitHubImportTotal, 1, map[string]string{"source": source})
}

// RecordGitHubSync adds the number of projects written by an owner sync.
func RecordGitHubSync(synced int) {
	if synced <= 0 {
		return
	}
	counter(GitHubSyncProjectsTotal, float64(synced), nil)
}

// RecordContactNotification counts an attempted contact notification.
func RecordContactNotification(delivered bool) {
	counter(ContactNotificationsTotal, 1, map[string]string{
		"delivered": strconv.FormatBool(delivered),
	})
}

// RecordAnalyticsEvent counts one accepted analytics event.
func RecordAnalyticsEvent(eventType string) {
	counter(AnalyticsEventsTotal, 1, map[string]string{"type": eventType})
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	counter(HealthCheckTotal, 1, map[string]string{
		"check":  checkName,
		"status": status,
	})
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(HealthCheckDuration, duration, map[string]string{"check": checkName})
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}
