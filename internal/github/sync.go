package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/folio/folio/internal/core"
)

const (
	DefaultSyncLimit = 12
	MaxSyncLimit     = 50

	maxSlugLength          = 80
	syncedDescription      = "Synced from GitHub. Add project details and case-study outcomes here."
	syncedLongDescription  = "Project synchronized from GitHub. Add architecture, security decisions, and impact metrics."
	noSyncCandidatesReason = "No sync-safe repositories found."
)

var (
	// ErrInvalidSyncLimit is returned for limits outside 1..MaxSyncLimit.
	ErrInvalidSyncLimit = fmt.Errorf("limit must be between 1 and %d", MaxSyncLimit)

	// ErrUpstream wraps failures to list repositories from GitHub.
	ErrUpstream = errors.New("github upstream request failed")
)

// ProjectStore persists synced projects.
type ProjectStore interface {
	// GitHubSyncFlags maps each existing slug to its is_github_synced flag.
	GitHubSyncFlags(ctx context.Context, slugs []string) (map[string]bool, error)
	UpsertSyncedProject(ctx context.Context, project *core.Project) (*core.Project, error)
}

// SyncedProject summarizes a row written by Sync.
type SyncedProject struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	GitHubRepoName string    `json:"github_repo_name"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SyncResult reports what Sync wrote.
type SyncResult struct {
	Username                  string          `json:"username"`
	Skipped                   bool            `json:"skipped,omitempty"`
	Reason                    string          `json:"reason,omitempty"`
	Synced                    int             `json:"synced"`
	SyncedProjects            []SyncedProject `json:"syncedProjects,omitempty"`
	SkippedManualProjectSlugs int             `json:"skippedManualProjectSlugs"`
}

// Syncer writes the top ranked repositories into the projects table without
// touching projects the owner created by hand.
type Syncer struct {
	Fetcher  RepoFetcher
	Store    ProjectStore
	Username string
}

// Sync ranks the user's eligible repositories and upserts the first limit of
// them by slug.
func (s *Syncer) Sync(ctx context.Context, limit int) (*SyncResult, error) {
	if s == nil || s.Fetcher == nil || s.Store == nil {
		return nil, errors.New("github syncer is not configured")
	}
	if limit == 0 {
		limit = DefaultSyncLimit
	}
	if limit < 1 || limit > MaxSyncLimit {
		return nil, ErrInvalidSyncLimit
	}

	repos, err := s.Fetcher.FetchRepos(ctx, s.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	ranked := Rank(FilterEligible(repos))
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	slugs := make([]string, 0, len(ranked))
	for _, item := range ranked {
		if slug := Slugify(item.Name); slug != "" {
			slugs = append(slugs, slug)
		}
	}

	flags, err := s.Store.GitHubSyncFlags(ctx, slugs)
	if err != nil {
		return nil, fmt.Errorf("load existing projects: %w", err)
	}

	candidates := make([]*core.Project, 0, len(ranked))
	for idx, item := range ranked {
		slug := Slugify(item.Name)
		if slug == "" {
			continue
		}
		if synced, exists := flags[slug]; exists && !synced {
			continue
		}
		candidates = append(candidates, syncedProject(item, slug, idx))
	}

	result := &SyncResult{
		Username:                  s.Username,
		SkippedManualProjectSlugs: len(slugs) - len(candidates),
	}
	if len(candidates) == 0 {
		result.Skipped = true
		result.Reason = noSyncCandidatesReason
		return result, nil
	}

	result.SyncedProjects = make([]SyncedProject, 0, len(candidates))
	for _, candidate := range candidates {
		saved, err := s.Store.UpsertSyncedProject(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("upsert project %s: %w", candidate.Slug, err)
		}
		result.SyncedProjects = append(result.SyncedProjects, SyncedProject{
			ID:             saved.ID,
			Slug:           saved.Slug,
			Title:          saved.Title,
			GitHubRepoName: derefString(saved.GitHubRepoName),
			UpdatedAt:      saved.UpdatedAt,
		})
	}
	result.Synced = len(result.SyncedProjects)
	return result, nil
}

func syncedProject(item Ranked, slug string, order int) *core.Project {
	description := syncedDescription
	longDescription := syncedLongDescription
	if item.Description != nil && strings.TrimSpace(*item.Description) != "" {
		description = *item.Description
		longDescription = *item.Description
	}

	topics := item.Topics
	if len(topics) > 6 {
		topics = topics[:6]
	}
	stack := make([]string, 0, len(topics)+1)
	if item.Language != nil {
		stack = append(stack, *item.Language)
	}
	stack = append(stack, topics...)

	categories := make([]string, 0, len(item.Categories))
	for _, category := range item.Categories {
		categories = append(categories, string(category))
	}

	repoName := item.Name
	project := &core.Project{
		Title:           TitleCase(item.Name),
		Slug:            slug,
		Description:     description,
		LongDescription: &longDescription,
		TechStack:       uniqueNonEmpty(stack, 8),
		Categories:      categories,
		Status:          core.ProjectPublished,
		DisplayOrder:    order,
		GitHubRepoName:  &repoName,
		IsGitHubSynced:  true,
	}
	if item.HTMLURL != "" {
		repoURL := item.HTMLURL
		project.RepoURL = &repoURL
	}
	if item.Homepage != "" {
		demoURL := item.Homepage
		project.DemoURL = &demoURL
	}
	return project
}

// Slugify lowercases name and collapses every run of other characters into a
// single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
