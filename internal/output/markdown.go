package output

import (
	"fmt"
	"strings"

	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatImport renders the ranked projects as a Markdown table.
func (f *MarkdownFormatter) FormatImport(result github.ImportResult) (string, error) {
	var sb strings.Builder
	sb.WriteString("## GitHub projects\n\n")
	sb.WriteString("| # | Title | Categories | Stars | Description |\n")
	sb.WriteString("|---|-------|------------|-------|-------------|\n")

	for i, project := range result.Projects {
		title := escapeMarkdownCell(project.Title)
		if project.GitHubURL != "" {
			title = fmt.Sprintf("[%s](%s)", title, project.GitHubURL)
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %d | %s |\n",
			i+1,
			title,
			escapeMarkdownCell(categoryLabel(project.Categories)),
			project.Stars,
			escapeMarkdownCell(project.ShortDescription),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Source**: %s\n", importSummary(result)))
	if result.Error != "" {
		sb.WriteString(fmt.Sprintf("\n**Error**: %s\n", result.Error))
	}
	for _, warning := range result.Warnings {
		sb.WriteString(fmt.Sprintf("\n> %s\n", warning))
	}
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatSync(result *github.SyncResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## GitHub sync for %s\n\n", escapeMarkdownCell(result.Username)))
	sb.WriteString("| Slug | Title | Repository |\n")
	sb.WriteString("|------|-------|------------|\n")
	for _, project := range result.SyncedProjects {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeMarkdownCell(project.Slug),
			escapeMarkdownCell(project.Title),
			escapeMarkdownCell(project.GitHubRepoName),
		))
	}
	sb.WriteString(fmt.Sprintf("\n**Result**: %s\n", syncSummary(result)))
	return sb.String(), nil
}

func (f *MarkdownFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("| Endpoint | Count | Backoff Until |\n")
	sb.WriteString("|----------|-------|---------------|\n")
	for _, entry := range entries {
		row := newRateLimitRow(entry)
		sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n",
			escapeMarkdownCell(row.Endpoint),
			row.RequestCount,
			timeLabel(row.BackoffUntil),
		))
	}
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
