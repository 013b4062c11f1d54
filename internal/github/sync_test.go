package github

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/core"
)

type memoryProjectStore struct {
	flags    map[string]bool
	upserted []*core.Project
}

func (m *memoryProjectStore) GitHubSyncFlags(_ context.Context, slugs []string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, slug := range slugs {
		if flag, ok := m.flags[slug]; ok {
			out[slug] = flag
		}
	}
	return out, nil
}

func (m *memoryProjectStore) UpsertSyncedProject(_ context.Context, project *core.Project) (*core.Project, error) {
	saved := *project
	saved.ID = "id-" + project.Slug
	saved.UpdatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.upserted = append(m.upserted, &saved)
	return &saved, nil
}

func TestSyncSkipsManualProjects(t *testing.T) {
	fetcher := &stubFetcher{repos: []Repository{
		{ID: "1", Name: "Hand-Made", Stars: 10},
		{ID: "2", Name: "ctf_writeups", Description: strPtr("CTF notes"), Language: strPtr("Python"),
			Topics: []string{"ctf", "python", "a", "b", "c", "d", "e"}, HTMLURL: "https://github.com/octo/ctf_writeups"},
		{ID: "3", Name: "forked", Fork: true},
		{ID: "4", Name: "synced-before", Homepage: "https://demo.example"},
	}}
	store := &memoryProjectStore{flags: map[string]bool{"hand-made": false, "synced-before": true}}

	result, err := (&Syncer{Fetcher: fetcher, Store: store, Username: "octo"}).Sync(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, "octo", result.Username)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.SkippedManualProjectSlugs)
	require.Len(t, store.upserted, 2)

	first := store.upserted[0]
	assert.Equal(t, "ctf-writeups", first.Slug)
	assert.Equal(t, "Ctf Writeups", first.Title)
	assert.Equal(t, 0, first.DisplayOrder)
	assert.Equal(t, []string{"Security", "Web"}, first.Categories)
	assert.Equal(t, []string{"Python", "ctf", "a", "b", "c", "d"}, first.TechStack)
	assert.Equal(t, core.ProjectPublished, first.Status)
	assert.True(t, first.IsGitHubSynced)
	assert.Equal(t, "ctf_writeups", *first.GitHubRepoName)
	assert.Equal(t, "https://github.com/octo/ctf_writeups", *first.RepoURL)

	second := store.upserted[1]
	assert.Equal(t, "synced-before", second.Slug)
	assert.Equal(t, 2, second.DisplayOrder)
	assert.Equal(t, "https://demo.example", *second.DemoURL)
	assert.Equal(t, syncedDescription, second.Description)
}

func TestSyncNothingSafe(t *testing.T) {
	fetcher := &stubFetcher{repos: []Repository{{ID: "1", Name: "manual"}}}
	store := &memoryProjectStore{flags: map[string]bool{"manual": false}}

	result, err := (&Syncer{Fetcher: fetcher, Store: store, Username: "octo"}).Sync(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, result.Skipped)
	require.Equal(t, "No sync-safe repositories found.", result.Reason)
	require.Zero(t, result.Synced)
	require.Empty(t, store.upserted)
}

func TestSyncLimit(t *testing.T) {
	repos := []Repository{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}, {ID: "3", Name: "c"}}
	store := &memoryProjectStore{}
	syncer := &Syncer{Fetcher: &stubFetcher{repos: repos}, Store: store}

	result, err := syncer.Sync(context.Background(), 2)
	require.NoError(t, err)
	require.Equal(t, 2, result.Synced)

	_, err = syncer.Sync(context.Background(), 51)
	require.ErrorIs(t, err, ErrInvalidSyncLimit)
	_, err = syncer.Sync(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidSyncLimit)
}

func TestSyncUpstreamFailure(t *testing.T) {
	upstream := errors.New("GitHub REST request failed with status 500")
	syncer := &Syncer{Fetcher: &stubFetcher{reposErr: upstream}, Store: &memoryProjectStore{}}

	_, err := syncer.Sync(context.Background(), 1)
	require.ErrorIs(t, err, upstream)
	require.ErrorIs(t, err, ErrUpstream)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ctf-writeups", Slugify("CTF_Writeups"))
	assert.Equal(t, "my-repo-js", Slugify("--My Repo.js--"))
	assert.Equal(t, "", Slugify("___"))
	assert.Len(t, Slugify(strings.Repeat("ab-", 40)), 80)
}
