package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/notify"
	"github.com/folio/folio/internal/observability"
	"github.com/folio/folio/internal/ratelimit"
)

// ContactReceipt is returned to the public contact form.
type ContactReceipt struct {
	ID                string        `json:"id"`
	CreatedAt         time.Time     `json:"created_at"`
	EmailNotification notify.Result `json:"emailNotification"`
}

// SubmitContact handles the public POST /api/contact. The message is stored
// before the owner is notified; a failed notification never fails the
// request.
func (a *API) SubmitContact(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ClientIP(r)
	key := ratelimit.BuildKey(a.rule(ratelimit.RuleContact).KeyPrefix, ip)
	if !a.allow(w, r, ratelimit.RuleContact, key, "Too many messages. Please try again later.") {
		return
	}

	var payload api.ContactSubmit
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	saved, err := a.Store.CreateContactMessage(r.Context(), payload.ContactMessage(ip, r.UserAgent()))
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Contact message"))
		return
	}

	receipt := ContactReceipt{ID: saved.ID, CreatedAt: saved.CreatedAt}
	if a.Notifier != nil {
		result, err := a.Notifier.NotifyContact(r.Context(), notify.ContactNotification{
			Name:    payload.Name,
			Email:   payload.Email,
			Subject: payload.Subject,
			Message: payload.Message,
		})
		if err != nil {
			observability.Warn("Contact notification failed",
				zap.String("message_id", saved.ID),
				zap.Error(err))
		}
		if result.Attempted {
			metrics.RecordContactNotification(result.Delivered)
		}
		receipt.EmailNotification = result
	}

	api.Respond(w, http.StatusCreated, receipt, map[string]any{"accepted": true})
}

// ListContactMessages handles owner GET /api/contact.
func (a *API) ListContactMessages(w http.ResponseWriter, r *http.Request) {
	page, err := api.ParsePagination(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	query, err := api.ParseContactQuery(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	messages, total, err := a.Store.ListContactMessages(r.Context(), store.ContactFilter{
		Status: query.Status,
		Search: query.Search,
	}, page.StorePage())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Contact message"))
		return
	}
	api.OK(w, messages, page.ListMeta(total))
}

// UpdateContactMessage handles owner PATCH /api/contact.
func (a *API) UpdateContactMessage(w http.ResponseWriter, r *http.Request) {
	var payload api.ContactUpdate
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	updated, err := a.Store.UpdateContactMessage(r.Context(), payload.ID, payload.StoreUpdate())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Contact message"))
		return
	}
	api.OK(w, updated, nil)
}
