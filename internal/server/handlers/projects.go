package handlers

import (
	"net/http"
	"strings"

	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/owner"
)

// ListProjects handles GET /api/projects. Anonymous callers only see
// published, non-deleted projects.
func (a *API) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := api.ParsePagination(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	query, err := api.ParseProjectQuery(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	filter := store.ProjectFilter{
		Category:       query.Category,
		Search:         query.Search,
		Status:         query.Status,
		IncludeDeleted: query.IncludeDeleted,
		PublicOnly:     !owner.IsOwner(r.Context()),
	}
	projects, total, err := a.Store.ListProjects(r.Context(), filter, page.StorePage())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Project"))
		return
	}
	api.OK(w, projects, page.ListMeta(total))
}

// CreateProject handles owner POST /api/projects.
func (a *API) CreateProject(w http.ResponseWriter, r *http.Request) {
	var payload api.ProjectCreate
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	project, err := a.Store.CreateProject(r.Context(), payload.Project())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Project"))
		return
	}
	api.Respond(w, http.StatusCreated, project, map[string]any{"created": true})
}

// UpdateProject handles owner PATCH /api/projects. Only the fields present
// in the body change.
func (a *API) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var payload api.ProjectUpdate
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	project, err := a.Store.GetProject(r.Context(), payload.ID)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Project"))
		return
	}
	payload.Apply(project, a.now())

	updated, err := a.Store.UpdateProject(r.Context(), project)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Project"))
		return
	}
	api.OK(w, updated, nil)
}

// DeleteProject handles owner DELETE /api/projects. The row is soft
// deleted and can be restored with PATCH {deleted:false}.
func (a *API) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := deleteID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	project, err := a.Store.SoftDeleteProject(r.Context(), id)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Project"))
		return
	}
	api.OK(w, project, nil)
}

// deleteID reads the target id from ?id= or from an {id} body.
func deleteID(r *http.Request) (string, error) {
	payload := api.IDPayload{ID: strings.TrimSpace(r.URL.Query().Get("id"))}
	if payload.ID == "" {
		if err := api.Decode(r, &payload); err != nil {
			return "", err
		}
		payload.ID = strings.TrimSpace(payload.ID)
	}
	if err := payload.Validate(); err != nil {
		return "", err
	}
	return payload.ID, nil
}
