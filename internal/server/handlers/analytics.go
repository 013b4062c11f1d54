package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/folio/folio/internal/analytics"
	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/core"
	errwrap "github.com/folio/folio/internal/errors"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/ratelimit"
)

// SessionHeader carries the analytics session when the body has none.
const SessionHeader = "X-Session-Id"

// EventReceipt is returned for an accepted analytics event.
type EventReceipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// RecordEvent handles the public POST /api/analytics.
func (a *API) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var input analytics.Input
	if err := api.Decode(r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	session := analytics.SessionFrom(input, r.Header.Get(SessionHeader))
	key := ratelimit.BuildKey(a.rule(ratelimit.RuleAnalytics).KeyPrefix, session, ratelimit.ClientIP(r))
	if !a.allow(w, r, ratelimit.RuleAnalytics, key, "Analytics rate limit exceeded. Please retry shortly.") {
		return
	}

	if input.SessionID == nil && session != "" {
		input.SessionID = &session
	}
	if err := input.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	event := analytics.Sanitize(input, r.UserAgent())
	saved, err := a.Store.InsertAnalyticsEvent(r.Context(), &event)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Analytics event"))
		return
	}
	metrics.RecordAnalyticsEvent(string(saved.EventType))

	api.Respond(w, http.StatusCreated, EventReceipt{
		ID:        saved.ID,
		CreatedAt: saved.CreatedAt,
	}, map[string]any{"accepted": true})
}

// AnalyticsSummary handles owner GET /api/analytics?days=&eventType=.
func (a *API) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	days, err := api.ParseIntParam(values, "days", analytics.DefaultDays, 1, analytics.MaxDays)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	eventType := core.EventType(strings.TrimSpace(values.Get("eventType")))
	if eventType != "" && !eventType.Valid() {
		fields := errwrap.FieldErrors{}
		fields.Add("eventType", "must be one of page_view, project_view, cv_download, contact_open")
		respondWithError(w, r, errwrap.NewValidationError("Invalid query parameters.", fields))
		return
	}

	events, err := a.Store.ListAnalyticsEvents(r.Context(), analytics.Since(a.now(), days), eventType)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Analytics event"))
		return
	}
	api.OK(w, analytics.Summarize(events, days), nil)
}
