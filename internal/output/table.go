package output

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatImport renders the ranked projects with any warnings below.
func (f *TableFormatter) FormatImport(result github.ImportResult) (string, error) {
	t := newTable()
	t.AppendHeader(table.Row{"#", "Title", "Categories", "Stars", "Pinned", "Description"})
	for i, project := range result.Projects {
		t.AppendRow(table.Row{
			i + 1,
			project.Title,
			categoryLabel(project.Categories),
			project.Stars,
			yesNo(project.IsPinned),
			truncate(project.ShortDescription),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", importSummary(result)})

	rendered := t.Render()
	if result.Error != "" {
		rendered += "\nError: " + result.Error
	}
	for _, warning := range result.Warnings {
		rendered += "\nWarning: " + warning
	}
	return rendered, nil
}

func (f *TableFormatter) FormatSync(result *github.SyncResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := newTable()
	t.SetTitle(fmt.Sprintf("GitHub sync for %s", result.Username))
	t.AppendHeader(table.Row{"Slug", "Title", "Repository", "Updated"})
	for _, project := range result.SyncedProjects {
		t.AppendRow(table.Row{
			project.Slug,
			project.Title,
			project.GitHubRepoName,
			project.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	t.AppendFooter(table.Row{"", "", "", syncSummary(result)})
	return t.Render(), nil
}

func (f *TableFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	if len(entries) == 0 {
		return "(no stored rate limit state)", nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"Endpoint", "Count", "Window Start", "Backoff Until", "Last 429"})
	for _, entry := range entries {
		row := newRateLimitRow(entry)
		t.AppendRow(table.Row{
			row.Endpoint,
			row.RequestCount,
			timeLabel(&row.WindowStart),
			timeLabel(row.BackoffUntil),
			timeLabel(row.Last429At),
		})
	}
	return t.Render(), nil
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "-"
}
