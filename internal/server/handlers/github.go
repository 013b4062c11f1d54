package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/folio/folio/internal/api"
	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/github"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/observability"
)

// GitHubProjects handles GET /api/github-projects. It always answers 200:
// upstream failures surface as warnings, rateLimited, and the fallback
// catalog.
func (a *API) GitHubProjects(w http.ResponseWriter, r *http.Request) {
	result := github.ImportResult{
		Source:   github.SourceUnavailable,
		Warnings: []string{},
		Projects: []github.ImportedProject{},
		Error:    "GitHub import is not configured.",
	}
	if a.Importer != nil {
		result = a.Importer.Import(r.Context())
	}
	metrics.RecordGitHubImport(result.Source)
	if len(result.Warnings) > 0 {
		observability.Warn("GitHub import degraded",
			zap.String("source", result.Source),
			zap.Bool("rate_limited", result.RateLimited),
			zap.Strings("warnings", result.Warnings))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}

// SyncGitHubRequest is the optional body of the sync endpoint.
type SyncGitHubRequest struct {
	Limit *int `json:"limit"`
}

// SyncGitHubProjects handles owner POST /api/projects/sync-github?limit=.
// Without a limit query parameter the limit comes from the JSON body.
func (a *API) SyncGitHubProjects(w http.ResponseWriter, r *http.Request) {
	limit, err := syncLimit(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if a.Syncer == nil {
		respondWithError(w, r, errwrap.NewServiceUnavailableError("GitHub sync is not configured."))
		return
	}

	result, err := a.Syncer.Sync(r.Context(), limit)
	if err != nil {
		if errors.Is(err, github.ErrUpstream) {
			respondWithError(w, r, errwrap.WrapExternalService(r.Context(), err, "GitHub request failed."))
			return
		}
		respondWithError(w, r, errwrap.WrapInternal(r.Context(), err, "GitHub sync failed."))
		return
	}
	metrics.RecordGitHubSync(result.Synced)
	api.OK(w, result, nil)
}

// syncLimit reads limit from the query, then from an optional body.
func syncLimit(r *http.Request) (int, error) {
	query := r.URL.Query()
	if strings.TrimSpace(query.Get("limit")) == "" {
		var payload SyncGitHubRequest
		if err := api.Decode(r, &payload); err != nil {
			return 0, err
		}
		if payload.Limit != nil {
			query = url.Values{"limit": {strconv.Itoa(*payload.Limit)}}
		}
	}
	return api.ParseIntParam(query, "limit", github.DefaultSyncLimit, 1, github.MaxSyncLimit)
}
