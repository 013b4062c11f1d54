package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
)

const maxCellRunes = 60

// rateLimitRow is the rendered shape of one stored upstream budget.
type rateLimitRow struct {
	Endpoint     string     `json:"endpoint"`
	RequestCount int        `json:"request_count"`
	WindowStart  time.Time  `json:"window_start"`
	BackoffUntil *time.Time `json:"backoff_until,omitempty"`
	Last429At    *time.Time `json:"last_429_at,omitempty"`
}

func newRateLimitRow(entry store.RateLimitEntry) rateLimitRow {
	return rateLimitRow{
		Endpoint:     entry.Endpoint,
		RequestCount: entry.State.RequestCount,
		WindowStart:  entry.State.WindowStart.UTC(),
		BackoffUntil: entry.State.BackoffUntil,
		Last429At:    entry.State.Last429At,
	}
}

func categoryLabel(categories []github.Category) string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}

func importSummary(result github.ImportResult) string {
	summary := fmt.Sprintf("%d projects from %s", len(result.Projects), result.Source)
	if result.RateLimited {
		summary += " (rate limited)"
	}
	return summary
}

func syncSummary(result *github.SyncResult) string {
	if result.Skipped {
		return "skipped: " + result.Reason
	}
	summary := fmt.Sprintf("%d synced", result.Synced)
	if result.SkippedManualProjectSlugs > 0 {
		summary += fmt.Sprintf(", %d manual slugs left untouched", result.SkippedManualProjectSlugs)
	}
	return summary
}

func timeLabel(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format(time.RFC3339)
}

func truncate(value string) string {
	runes := []rune(value)
	if len(runes) <= maxCellRunes {
		return value
	}
	return string(runes[:maxCellRunes-1]) + "…"
}
