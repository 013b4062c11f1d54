package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/core/store"
)

// ListSettings handles GET /api/settings. With ?key= it returns that setting
// or null; otherwise one page of settings ordered by key.
func (a *API) ListSettings(w http.ResponseWriter, r *http.Request) {
	query, err := api.ParseSettingsQuery(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	if query.Key != "" {
		setting, err := a.Store.GetSetting(r.Context(), query.Key)
		if errors.Is(err, store.ErrNotFound) {
			api.OK(w, nil, nil)
			return
		}
		if err != nil {
			respondWithError(w, r, api.StoreError(r.Context(), err, "Setting"))
			return
		}
		api.OK(w, setting, nil)
		return
	}

	page, err := api.ParsePagination(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	settings, total, err := a.Store.ListSettings(r.Context(), query.Search, page.StorePage())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Setting"))
		return
	}
	api.OK(w, settings, page.ListMeta(total))
}

// UpsertSetting handles owner POST and PATCH /api/settings. Both insert the
// key or replace its value and description.
func (a *API) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	var payload api.SettingUpsert
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	setting, err := a.Store.UpsertSetting(r.Context(), payload.Key, payload.Value, payload.Description)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Setting"))
		return
	}
	api.OK(w, setting, nil)
}

// SettingDeleted is the body returned by DELETE /api/settings.
type SettingDeleted struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
	Key     string `json:"key"`
}

// DeleteSetting handles owner DELETE /api/settings. The target comes from
// ?key=, ?id=, or a {key}|{id} body, in that order.
func (a *API) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	payload := api.SettingDelete{
		Key: strings.TrimSpace(values.Get("key")),
		ID:  strings.TrimSpace(values.Get("id")),
	}
	if payload.Key == "" && payload.ID == "" {
		if err := api.Decode(r, &payload); err != nil {
			respondWithError(w, r, err)
			return
		}
	}
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	setting, err := a.Store.DeleteSetting(r.Context(), payload.Key, payload.ID)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Setting"))
		return
	}
	api.OK(w, SettingDeleted{Deleted: true, ID: setting.ID, Key: setting.Key}, nil)
}
