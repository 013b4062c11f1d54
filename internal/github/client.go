// Package github fetches a user's repositories from the GitHub REST and
// GraphQL APIs, classifies them, and turns them into portfolio projects.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://api.github.com"
	DefaultGraphQLURL = "https://api.github.com/graphql"

	budgetEndpoint = "api.github.com"
	acceptHeader   = "application/vnd.github+json"
	maxErrorBody   = 4096
)

const pinnedQuery = `
query PinnedRepos($login: String!) {
  user(login: $login) {
    pinnedItems(first: 6, types: REPOSITORY) {
      nodes {
        ... on Repository {
          id
          name
          description
          url
          homepageUrl
          stargazerCount
          updatedAt
          isArchived
          isFork
          primaryLanguage { name }
          repositoryTopics(first: 10) {
            nodes {
              topic { name }
            }
          }
        }
      }
    }
  }
}
`

// ErrTokenRequired is returned by FetchPinned when no token is configured.
var ErrTokenRequired = errors.New("github token is required for pinned repositories")

// Budget throttles outbound calls. engine.RateLimiter satisfies it.
type Budget interface {
	Allow(ctx context.Context, endpoint string) (bool, time.Duration, error)
	Record(ctx context.Context, endpoint string) error
	Record429(ctx context.Context, endpoint string, retryAfter time.Duration) error
}

// APIError describes a failed upstream call.
type APIError struct {
	Status             int
	Message            string
	RateLimitRemaining string
}

func (e *APIError) Error() string {
	return e.Message
}

// RateLimited reports whether the failure was caused by upstream throttling.
func (e *APIError) RateLimited() bool {
	return IsRateLimitMessage(e.Message)
}

// IsRateLimitMessage reports whether an upstream failure message indicates
// rate limiting.
func IsRateLimitMessage(message string) bool {
	normalized := strings.ToLower(message)
	return strings.Contains(normalized, "rate limit") || strings.Contains(normalized, "x-ratelimit-remaining")
}

// Client talks to the GitHub API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	GraphQLURL string
	Token      string
	Budget     Budget
	UserAgent  string
}

// HasToken reports whether authenticated calls are possible.
func (c *Client) HasToken() bool {
	return c != nil && strings.TrimSpace(c.Token) != ""
}

// FetchRepos lists the public repositories of user, most recently updated
// first.
func (c *Client) FetchRepos(ctx context.Context, user string) ([]Repository, error) {
	if c == nil {
		return nil, errors.New("github client is not configured")
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, errors.New("github username is required")
	}

	endpoint, err := url.JoinPath(c.baseURL(), "users", user, "repos")
	if err != nil {
		return nil, fmt.Errorf("build repos url: %w", err)
	}
	endpoint += "?per_page=100&sort=updated"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(ctx, resp, "GitHub REST request failed")
	}

	var payload []restRepo
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode repositories: %w", err)
	}

	repos := make([]Repository, 0, len(payload))
	for _, item := range payload {
		repos = append(repos, item.toRepository())
	}
	return repos, nil
}

// FetchPinned returns the repositories pinned on the user's profile. It
// needs a token.
func (c *Client) FetchPinned(ctx context.Context, user string) ([]Repository, error) {
	if !c.HasToken() {
		return nil, ErrTokenRequired
	}

	body, err := json.Marshal(map[string]any{
		"query":     pinnedQuery,
		"variables": map[string]string{"login": strings.TrimSpace(user)},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphQLURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(ctx, resp, "GitHub GraphQL request failed")
	}

	var payload struct {
		Data *struct {
			User *struct {
				PinnedItems *struct {
					Nodes []*graphqlRepo `json:"nodes"`
				} `json:"pinnedItems"`
			} `json:"user"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode pinned repositories: %w", err)
	}

	if len(payload.Errors) > 0 {
		messages := make([]string, 0, len(payload.Errors))
		for _, item := range payload.Errors {
			messages = append(messages, item.Message)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: strings.Join(messages, "; ")}
	}

	if payload.Data == nil || payload.Data.User == nil || payload.Data.User.PinnedItems == nil {
		return []Repository{}, nil
	}

	repos := make([]Repository, 0, len(payload.Data.User.PinnedItems.Nodes))
	for _, node := range payload.Data.User.PinnedItems.Nodes {
		if node == nil || node.Name == "" {
			continue
		}
		repos = append(repos, node.toRepository())
	}
	return repos, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.Budget != nil {
		allowed, wait, err := c.Budget.Allow(ctx, budgetEndpoint)
		if err != nil {
			return nil, fmt.Errorf("check github budget: %w", err)
		}
		if !allowed {
			return nil, &APIError{
				Status:  http.StatusTooManyRequests,
				Message: fmt.Sprintf("local GitHub rate limit budget exhausted, retry in %s", wait.Round(time.Second)),
			}
		}
		if err := c.Budget.Record(ctx, budgetEndpoint); err != nil {
			return nil, fmt.Errorf("record github budget: %w", err)
		}
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return client.Do(req)
}

func (c *Client) apiError(ctx context.Context, resp *http.Response, prefix string) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	message := fmt.Sprintf("%s with status %d", prefix, resp.StatusCode)

	if detail := upstreamMessage(resp.Body); detail != "" {
		message += ": " + detail
	}
	if remaining == "0" {
		message += " | x-ratelimit-remaining=0"
	}

	if (resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests) && c.Budget != nil {
		wait := retryAfter(resp)
		if wait <= 0 && remaining == "0" {
			wait = resetWait(resp)
		}
		if wait > 0 {
			_ = c.Budget.Record429(ctx, budgetEndpoint, wait)
		}
	}

	return &APIError{Status: resp.StatusCode, Message: message, RateLimitRemaining: remaining}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", acceptHeader)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) baseURL() string {
	if c != nil && strings.TrimSpace(c.BaseURL) != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (c *Client) graphQLURL() string {
	if c != nil && strings.TrimSpace(c.GraphQLURL) != "" {
		return c.GraphQLURL
	}
	return DefaultGraphQLURL
}

func upstreamMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

func retryAfter(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if parsed, err := http.ParseTime(value); err == nil {
		return time.Until(parsed)
	}
	return 0
}

func resetWait(resp *http.Response) time.Duration {
	value := strings.TrimSpace(resp.Header.Get("X-RateLimit-Reset"))
	if value == "" {
		return 0
	}
	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return time.Until(time.Unix(epoch, 0))
}
