package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Import sources reported to callers.
const (
	SourcePinned      = "graphql-pinned"
	SourceREST        = "rest-fallback"
	SourceUnavailable = "unavailable"

	DefaultMaxProjects = 8

	defaultImportedDescription = "GitHub repository imported dynamically. Add extended case-study context."
	defaultLongDescription     = "Repository imported dynamically from GitHub. Add architecture notes, security decisions, and outcomes."
)

// ImportedProject is a repository shaped for the public project grid.
type ImportedProject struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	ShortDescription string     `json:"shortDescription" yaml:"short_description"`
	LongDescription  string     `json:"longDescription" yaml:"long_description"`
	Categories       []Category `json:"categories" yaml:"categories"`
	Stack            []string   `json:"stack" yaml:"stack"`
	GitHubURL        string     `json:"githubUrl" yaml:"github_url"`
	LiveURL          string     `json:"liveUrl" yaml:"live_url"`
	Source           string     `json:"source" yaml:"source"`
	IsPinned         bool       `json:"isPinned" yaml:"is_pinned"`
	Language         string     `json:"language,omitempty" yaml:"language"`
	Stars            int        `json:"stars" yaml:"stars"`
	Score            int        `json:"score" yaml:"-"`
	UpdatedAt        string     `json:"updatedAt,omitempty" yaml:"updated_at"`
}

// ImportResult is the outcome of an import. It is always renderable: upstream
// failures become warnings and the fallback catalog.
type ImportResult struct {
	OK          bool              `json:"ok"`
	Source      string            `json:"source"`
	RateLimited bool              `json:"rateLimited"`
	Warnings    []string          `json:"warnings"`
	Projects    []ImportedProject `json:"projects"`
	Error       string            `json:"error,omitempty"`
}

// RepoFetcher is the part of Client the importer needs.
type RepoFetcher interface {
	HasToken() bool
	FetchPinned(ctx context.Context, user string) ([]Repository, error)
	FetchRepos(ctx context.Context, user string) ([]Repository, error)
}

// Importer merges pinned and ranked repositories into a project list.
type Importer struct {
	Fetcher     RepoFetcher
	Username    string
	MaxProjects int
	Fallback    []ImportedProject
}

// Import fetches pinned and listed repositories concurrently and merges them.
func (i *Importer) Import(ctx context.Context) ImportResult {
	result := ImportResult{Warnings: []string{}, Projects: []ImportedProject{}}
	if i == nil || i.Fetcher == nil {
		result.Source = SourceUnavailable
		result.Error = "github importer is not configured"
		result.Projects = i.fallback()
		return result
	}

	var (
		pinned, listed       []Repository
		pinnedErr, listedErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	if i.Fetcher.HasToken() {
		g.Go(func() error {
			pinned, pinnedErr = i.Fetcher.FetchPinned(gctx, i.Username)
			return nil
		})
	}
	g.Go(func() error {
		listed, listedErr = i.Fetcher.FetchRepos(gctx, i.Username)
		return nil
	})
	_ = g.Wait()

	if pinnedErr != nil {
		pinned = nil
		result.addFailure("Pinned fetch failed", pinnedErr)
	}
	pinned = FilterEligible(pinned)

	if listedErr != nil {
		result.addFailure("Repo fetch failed", listedErr)
		if len(pinned) == 0 {
			result.Source = SourceUnavailable
			result.Error = listedErr.Error()
			result.Projects = i.fallback()
			return result
		}
	}

	pinnedNames := make(map[string]struct{}, len(pinned))
	for _, repo := range pinned {
		pinnedNames[strings.ToLower(repo.Name)] = struct{}{}
	}

	rest := make([]Repository, 0, len(listed))
	for _, repo := range FilterEligible(listed) {
		if _, ok := pinnedNames[strings.ToLower(repo.Name)]; ok {
			continue
		}
		rest = append(rest, repo)
	}

	limit := i.MaxProjects
	if limit <= 0 {
		limit = DefaultMaxProjects
	}

	for _, repo := range pinned {
		if len(result.Projects) >= limit {
			break
		}
		result.Projects = append(result.Projects, ToProject(repo, Classify(repo), true))
	}
	for _, ranked := range Rank(rest) {
		if len(result.Projects) >= limit {
			break
		}
		result.Projects = append(result.Projects, ToProject(ranked.Repository, ranked.Classification, false))
	}

	result.OK = true
	result.Source = SourceREST
	if i.Fetcher.HasToken() && len(pinned) > 0 {
		result.Source = SourcePinned
	}
	return result
}

func (r *ImportResult) addFailure(prefix string, err error) {
	message := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		message = apiErr.Message
	}
	r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %s", prefix, message))
	if IsRateLimitMessage(message) {
		r.RateLimited = true
	}
}

func (i *Importer) fallback() []ImportedProject {
	if i != nil && i.Fallback != nil {
		return append([]ImportedProject(nil), i.Fallback...)
	}
	return []ImportedProject{}
}

// ToProject converts a classified repository into an imported project.
func ToProject(repo Repository, class Classification, pinned bool) ImportedProject {
	description := defaultImportedDescription
	longDescription := defaultLongDescription
	if repo.Description != nil && strings.TrimSpace(*repo.Description) != "" {
		description = *repo.Description
		longDescription = *repo.Description
	}

	language := ""
	if repo.Language != nil {
		language = *repo.Language
	}
	languageLabel := language
	if languageLabel == "" {
		languageLabel = "N/A"
	}

	updated := ""
	if !repo.UpdatedAt.IsZero() {
		updated = repo.UpdatedAt.UTC().Format("Jan 2006")
	}

	topics := repo.Topics
	if len(topics) > 4 {
		topics = topics[:4]
	}
	stack := make([]string, 0, 6)
	stack = append(stack, language)
	stack = append(stack, topics...)
	stack = append(stack, "GitHub API")

	return ImportedProject{
		ID:               "gh-" + repo.ID,
		Title:            TitleCase(repo.Name),
		ShortDescription: description,
		LongDescription:  fmt.Sprintf("%s\n\nStars: %d | Language: %s | Last Updated: %s", longDescription, repo.Stars, languageLabel, updated),
		Categories:       class.Categories,
		Stack:            uniqueNonEmpty(stack, 5),
		GitHubURL:        repo.HTMLURL,
		LiveURL:          repo.Homepage,
		Source:           "github",
		IsPinned:         pinned,
		Language:         language,
		Stars:            repo.Stars,
		Score:            class.Score,
		UpdatedAt:        updated,
	}
}

// TitleCase turns "ctf-writeups" into "Ctf Writeups".
func TitleCase(name string) string {
	replaced := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	out := []byte(replaced)
	prevWord := false
	for idx, ch := range out {
		word := isWordByte(ch)
		if word && !prevWord && ch >= 'a' && ch <= 'z' {
			out[idx] = ch - ('a' - 'A')
		}
		prevWord = word
	}
	return string(out)
}

func isWordByte(ch byte) bool {
	return ch == '_' || (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func uniqueNonEmpty(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, value)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
