//go:build cgo

package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folio/folio/internal/config"
	"github.com/folio/folio/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func strPtr(value string) *string { return &value }

func TestOpenMemoryStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.StoreConfig{
		Driver: "libsql",
		Path:   ":memory:",
	}

	store, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, store)
	require.Equal(t, "libsql", store.Driver())
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations are idempotent")
	require.NoError(t, store.Close())
}

func TestProjectsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateProject(ctx, &core.Project{
		Title:       "Threat Radar",
		Slug:        "threat-radar",
		Description: "Security dashboard",
		TechStack:   []string{"Go", "Postgres"},
		Categories:  []string{"Security", "Web"},
		Status:      core.ProjectPublished,
		RepoURL:     strPtr("https://github.com/octo/threat-radar"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"Go", "Postgres"}, created.TechStack)
	assert.Equal(t, "https://github.com/octo/threat-radar", *created.RepoURL)
	assert.Nil(t, created.DemoURL)

	_, err = s.CreateProject(ctx, &core.Project{Title: "Dup", Slug: "threat-radar", Status: core.ProjectDraft})
	require.ErrorIs(t, err, ErrConflict)

	bySlug, err := s.GetProjectBySlug(ctx, "threat-radar")
	require.NoError(t, err)
	assert.Equal(t, created.ID, bySlug.ID)

	created.Title = "Threat Radar v2"
	created.IsPinned = true
	updated, err := s.UpdateProject(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Threat Radar v2", updated.Title)
	assert.True(t, updated.IsPinned)

	deleted, err := s.SoftDeleteProject(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	_, err = s.GetProjectBySlug(ctx, "threat-radar")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.SoftDeleteProject(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListProjectsFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seed := []core.Project{
		{Title: "Alpha", Slug: "alpha", Description: "web app", Categories: []string{"Web"}, Status: core.ProjectPublished, DisplayOrder: 2},
		{Title: "Beta", Slug: "beta", Description: "scanner", Categories: []string{"Security"}, Status: core.ProjectPublished, DisplayOrder: 1},
		{Title: "Gamma", Slug: "gamma", Description: "pinned", Categories: []string{"Web"}, Status: core.ProjectPublished, DisplayOrder: 9, IsPinned: true},
		{Title: "Draft", Slug: "draft", Description: "wip", Categories: []string{"Web"}, Status: core.ProjectDraft},
	}
	for i := range seed {
		_, err := s.CreateProject(ctx, &seed[i])
		require.NoError(t, err)
	}

	public, total, err := s.ListProjects(ctx, ProjectFilter{PublicOnly: true, Status: core.ProjectDraft}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, public, 3)
	assert.Equal(t, []string{"gamma", "beta", "alpha"}, []string{public[0].Slug, public[1].Slug, public[2].Slug})

	web, total, err := s.ListProjects(ctx, ProjectFilter{PublicOnly: true, Category: "Web"}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, web, 2)

	search, _, err := s.ListProjects(ctx, ProjectFilter{Search: "SCAN%"}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "beta", search[0].Slug)

	drafts, total, err := s.ListProjects(ctx, ProjectFilter{Status: core.ProjectDraft}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "draft", drafts[0].Slug)

	paged, total, err := s.ListProjects(ctx, ProjectFilter{}, Page{Number: 2, Size: 3})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, paged, 1)
}

func TestGitHubSyncFlagsAndUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.CreateProject(ctx, &core.Project{Title: "Manual", Slug: "manual", Description: "hand made", Status: core.ProjectPublished})
	require.NoError(t, err)

	synced, err := s.UpsertSyncedProject(ctx, &core.Project{
		Title:          "Edge Proxy",
		Slug:           "edge-proxy",
		Description:    "proxy",
		Status:         core.ProjectPublished,
		GitHubRepoName: strPtr("edge-proxy"),
		DisplayOrder:   0,
	})
	require.NoError(t, err)
	assert.True(t, synced.IsGitHubSynced)

	again, err := s.UpsertSyncedProject(ctx, &core.Project{
		Title:          "Edge Proxy",
		Slug:           "edge-proxy",
		Description:    "updated proxy",
		Status:         core.ProjectPublished,
		GitHubRepoName: strPtr("edge-proxy"),
		DisplayOrder:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, synced.ID, again.ID)
	assert.Equal(t, "updated proxy", again.Description)
	assert.Equal(t, 3, again.DisplayOrder)

	flags, err := s.GitHubSyncFlags(ctx, []string{"manual", "edge-proxy", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"manual": false, "edge-proxy": true}, flags)

	manual, err := s.UpsertSyncedProject(ctx, &core.Project{Title: "Overwrite", Slug: "manual", Description: "nope", Status: core.ProjectPublished})
	require.NoError(t, err)
	assert.Equal(t, "Manual", manual.Title, "manual rows are never overwritten")
	assert.False(t, manual.IsGitHubSynced)
}

func TestBlogPostsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	published, err := s.CreateBlogPost(ctx, &core.BlogPost{
		Title:       "Hardening Go services",
		Slug:        "hardening-go",
		Excerpt:     "notes",
		Content:     "body",
		Tags:        []string{"go", "security"},
		IsPublished: true,
	})
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt, "publishing stamps published_at")
	assert.Equal(t, 1, published.ReadingTimeMinutes)

	draft, err := s.CreateBlogPost(ctx, &core.BlogPost{Title: "Draft", Slug: "draft", ReadingTimeMinutes: 4})
	require.NoError(t, err)
	assert.Nil(t, draft.PublishedAt)

	public, total, err := s.ListBlogPosts(ctx, BlogFilter{PublicOnly: true}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "hardening-go", public[0].Slug)

	tagged, _, err := s.ListBlogPosts(ctx, BlogFilter{Tag: "security"}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Len(t, tagged, 1)

	unpublished := false
	drafts, _, err := s.ListBlogPosts(ctx, BlogFilter{IsPublished: &unpublished}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "draft", drafts[0].Slug)

	_, err = s.GetBlogPostBySlug(ctx, "draft", true, false)
	require.ErrorIs(t, err, ErrNotFound)

	draft.IsPublished = true
	promoted, err := s.UpdateBlogPost(ctx, draft)
	require.NoError(t, err)
	require.NotNil(t, promoted.PublishedAt)

	_, err = s.SoftDeleteBlogPost(ctx, promoted.ID)
	require.NoError(t, err)
	_, err = s.GetBlogPostBySlug(ctx, "draft", false, false)
	require.ErrorIs(t, err, ErrNotFound)
	found, err := s.GetBlogPostBySlug(ctx, "draft", false, true)
	require.NoError(t, err)
	require.NotNil(t, found.DeletedAt)
}

func TestContactMessages(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	msg, err := s.CreateContactMessage(ctx, &core.ContactMessage{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Subject:   strPtr("Hello"),
		Message:   "I would like to talk about engines.",
		IPAddress: strPtr("203.0.113.9"),
	})
	require.NoError(t, err)
	assert.Equal(t, core.ContactUnread, msg.Status)

	_, err = s.CreateContactMessage(ctx, &core.ContactMessage{Name: "Bob", Email: "bob@example.com", Message: "Another message body"})
	require.NoError(t, err)

	found, total, err := s.ListContactMessages(ctx, ContactFilter{Search: "ada"}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, msg.ID, found[0].ID)

	status := core.ContactReplied
	updated, err := s.UpdateContactMessage(ctx, msg.ID, ContactUpdate{Status: &status, Notes: strPtr("answered")})
	require.NoError(t, err)
	assert.Equal(t, core.ContactReplied, updated.Status)
	assert.Equal(t, "answered", *updated.Notes)

	cleared, err := s.UpdateContactMessage(ctx, msg.ID, ContactUpdate{ClearNotes: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Notes)
	assert.Equal(t, core.ContactReplied, cleared.Status)

	replied, total, err := s.ListContactMessages(ctx, ContactFilter{Status: core.ContactReplied}, Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, msg.ID, replied[0].ID)

	_, err = s.UpdateContactMessage(ctx, "missing", ContactUpdate{Status: &status})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyticsEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Now().UTC()
	_, err := s.InsertAnalyticsEvent(ctx, &core.AnalyticsEvent{
		EventType:  core.EventPageView,
		PagePath:   "/",
		DeviceType: core.DeviceDesktop,
		SessionID:  strPtr("sess-1"),
		Metadata:   map[string]core.MetadataValue{"section": "hero", "depth": 3.0},
		CreatedAt:  now,
	})
	require.NoError(t, err)

	_, err = s.InsertAnalyticsEvent(ctx, &core.AnalyticsEvent{
		EventType:  core.EventCVDownload,
		PagePath:   "/cv",
		DeviceType: core.DeviceMobile,
		CreatedAt:  now.Add(-40 * 24 * time.Hour),
	})
	require.NoError(t, err)

	events, err := s.ListAnalyticsEvents(ctx, now.Add(-30*24*time.Hour), "")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "hero", events[0].Metadata["section"])
	assert.InDelta(t, 3.0, events[0].Metadata["depth"], 0.0001)

	views, err := s.ListAnalyticsEvents(ctx, now.Add(-90*24*time.Hour), core.EventCVDownload)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "/cv", views[0].PagePath)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.UpsertSetting(ctx, "hero.title", json.RawMessage(`"Hello"`), strPtr("Hero headline"))
	require.NoError(t, err)
	assert.JSONEq(t, `"Hello"`, string(created.Value))

	updated, err := s.UpsertSetting(ctx, "hero.title", json.RawMessage(`{"text":"Hi"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.JSONEq(t, `{"text":"Hi"}`, string(updated.Value))
	assert.Nil(t, updated.Description)

	_, err = s.UpsertSetting(ctx, "bad", json.RawMessage(`{`), nil)
	require.Error(t, err)

	_, err = s.UpsertSetting(ctx, "contact.enabled", json.RawMessage(`true`), nil)
	require.NoError(t, err)

	list, total, err := s.ListSettings(ctx, "", Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, "contact.enabled", list[0].Key)

	filtered, total, err := s.ListSettings(ctx, "hero", Page{Number: 1, Size: 12})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "hero.title", filtered[0].Key)

	removed, err := s.DeleteSetting(ctx, "", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "hero.title", removed.Key)

	_, err = s.GetSetting(ctx, "hero.title")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteSetting(ctx, "hero.title", "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRateLimitState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	state, err := s.GetRateLimit(ctx, "api.github.com")
	require.NoError(t, err)
	require.Nil(t, state)

	backoff := time.Now().Add(time.Minute).UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateRateLimit(ctx, "api.github.com", &core.RateLimitState{
		RequestCount: 7,
		WindowStart:  time.Now().UTC().Truncate(time.Second),
		BackoffUntil: &backoff,
	}))
	require.NoError(t, s.UpdateRateLimit(ctx, "api.github.com/graphql", &core.RateLimitState{RequestCount: 1, WindowStart: time.Now()}))

	state, err = s.GetRateLimit(ctx, "api.github.com")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, 7, state.RequestCount)
	require.NotNil(t, state.BackoffUntil)
	assert.True(t, backoff.Equal(*state.BackoffUntil))

	entries, err := s.ListRateLimits(ctx, RateLimitQuery{Prefix: "api.github.com"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	count, err := s.CountRateLimits(ctx, RateLimitQuery{Endpoint: "api.github.com"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	removed, err := s.ResetRateLimits(ctx, RateLimitQuery{All: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = s.ListRateLimits(ctx, RateLimitQuery{})
	require.Error(t, err)
}
