package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingBudget struct {
	allow     bool
	wait      time.Duration
	recorded  int
	backoffs  []time.Duration
	endpoints []string
}

func (b *recordingBudget) Allow(_ context.Context, endpoint string) (bool, time.Duration, error) {
	b.endpoints = append(b.endpoints, endpoint)
	return b.allow, b.wait, nil
}

func (b *recordingBudget) Record(context.Context, string) error {
	b.recorded++
	return nil
}

func (b *recordingBudget) Record429(_ context.Context, _ string, retryAfter time.Duration) error {
	b.backoffs = append(b.backoffs, retryAfter)
	return nil
}

func TestFetchReposDecodesAndAuthenticates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/octo/repos", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("per_page"))
		require.Equal(t, "updated", r.URL.Query().Get("sort"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 7, "name": "ctf-writeups", "description": "CTF notes", "html_url": "https://github.com/octo/ctf-writeups",
			 "homepage": null, "language": "Python", "topics": ["ctf"], "stargazers_count": 12,
			 "updated_at": "2025-02-01T10:00:00Z", "archived": false, "fork": false},
			{"id": 8, "name": "old", "description": null, "html_url": "https://github.com/octo/old",
			 "homepage": "", "language": null, "stargazers_count": 0,
			 "updated_at": "2020-02-01T10:00:00Z", "archived": true, "fork": false}
		]`))
	}))
	defer server.Close()

	budget := &recordingBudget{allow: true}
	client := &Client{HTTPClient: server.Client(), BaseURL: server.URL, Token: "secret", Budget: budget}

	repos, err := client.FetchRepos(context.Background(), "octo")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	require.Equal(t, "7", repos[0].ID)
	require.Equal(t, "Python", *repos[0].Language)
	require.Equal(t, 12, repos[0].Stars)
	require.True(t, repos[1].Archived)
	require.NotNil(t, repos[1].Topics)
	require.Equal(t, 1, budget.recorded)
	require.Equal(t, []string{"api.github.com"}, budget.endpoints)
}

func TestFetchReposWithoutTokenSendsNoAuthorization(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := &Client{HTTPClient: server.Client(), BaseURL: server.URL}
	repos, err := client.FetchRepos(context.Background(), "octo")
	require.NoError(t, err)
	require.Empty(t, repos)
}

func TestFetchReposRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded for 203.0.113.1."}`))
	}))
	defer server.Close()

	budget := &recordingBudget{allow: true}
	client := &Client{HTTPClient: server.Client(), BaseURL: server.URL, Budget: budget}

	_, err := client.FetchRepos(context.Background(), "octo")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusForbidden, apiErr.Status)
	require.Equal(t, "0", apiErr.RateLimitRemaining)
	require.True(t, apiErr.RateLimited())
	require.Equal(t,
		"GitHub REST request failed with status 403: API rate limit exceeded for 203.0.113.1. | x-ratelimit-remaining=0",
		apiErr.Message)
	require.Equal(t, []time.Duration{time.Minute}, budget.backoffs)
}

func TestFetchReposBudgetExhausted(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := &Client{
		HTTPClient: server.Client(),
		BaseURL:    server.URL,
		Budget:     &recordingBudget{allow: false, wait: 30 * time.Second},
	}

	_, err := client.FetchRepos(context.Background(), "octo")
	require.Error(t, err)
	require.False(t, called)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.True(t, apiErr.RateLimited())
	require.Contains(t, apiErr.Message, "retry in 30s")
}

func TestFetchPinnedRequiresToken(t *testing.T) {
	_, err := (&Client{}).FetchPinned(context.Background(), "octo")
	require.ErrorIs(t, err, ErrTokenRequired)
}

func TestFetchPinned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Query     string            `json:"query"`
			Variables map[string]string `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Contains(t, body.Query, "pinnedItems(first: 6, types: REPOSITORY)")
		require.Equal(t, "octo", body.Variables["login"])

		_, _ = w.Write([]byte(`{"data":{"user":{"pinnedItems":{"nodes":[
			{"id":"R_1","name":"siem-rules","description":"Detection rules","url":"https://github.com/octo/siem-rules",
			 "homepageUrl":null,"stargazerCount":5,"updatedAt":"2025-01-01T00:00:00Z","isArchived":false,"isFork":false,
			 "primaryLanguage":{"name":"YAML"},"repositoryTopics":{"nodes":[{"topic":{"name":"siem"}}]}},
			null
		]}}}}`))
	}))
	defer server.Close()

	client := &Client{HTTPClient: server.Client(), GraphQLURL: server.URL, Token: "secret"}
	repos, err := client.FetchPinned(context.Background(), "octo")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.Equal(t, "R_1", repos[0].ID)
	require.Equal(t, "YAML", *repos[0].Language)
	require.Equal(t, []string{"siem"}, repos[0].Topics)
}

func TestFetchPinnedGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"Could not resolve to a User"},{"message":"second"}]}`))
	}))
	defer server.Close()

	client := &Client{HTTPClient: server.Client(), GraphQLURL: server.URL, Token: "secret"}
	_, err := client.FetchPinned(context.Background(), "ghost")
	require.EqualError(t, err, "Could not resolve to a User; second")
}

func TestIsRateLimitMessage(t *testing.T) {
	require.True(t, IsRateLimitMessage("API Rate Limit exceeded"))
	require.True(t, IsRateLimitMessage("failed | x-ratelimit-remaining=0"))
	require.False(t, IsRateLimitMessage("status 500"))
}
