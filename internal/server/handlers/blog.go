package handlers

import (
	"errors"
	"net/http"

	"github.com/folio/folio/internal/api"
	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
	"github.com/folio/folio/internal/owner"
)

// ListBlogPosts handles GET /api/blog. With ?slug= it returns a single post
// or null; otherwise one page of posts. Anonymous callers only see
// published, non-deleted posts.
func (a *API) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	query, err := api.ParseBlogQuery(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	isOwner := owner.IsOwner(r.Context())

	if query.Slug != "" {
		post, err := a.Store.GetBlogPostBySlug(r.Context(), github.Slugify(query.Slug), !isOwner, query.IncludeDeleted)
		if errors.Is(err, store.ErrNotFound) {
			api.OK(w, nil, nil)
			return
		}
		if err != nil {
			respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
			return
		}
		api.OK(w, post, nil)
		return
	}

	page, err := api.ParsePagination(r.URL.Query())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	filter := store.BlogFilter{
		Tag:            query.Tag,
		Search:         query.Search,
		IsPublished:    query.IsPublished,
		IncludeDeleted: query.IncludeDeleted,
		PublicOnly:     !isOwner,
	}
	posts, total, err := a.Store.ListBlogPosts(r.Context(), filter, page.StorePage())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
		return
	}
	api.OK(w, posts, page.ListMeta(total))
}

// CreateBlogPost handles owner POST /api/blog.
func (a *API) CreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var payload api.BlogCreate
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	post, err := a.Store.CreateBlogPost(r.Context(), payload.Post())
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
		return
	}
	api.Respond(w, http.StatusCreated, post, map[string]any{"created": true})
}

// UpdateBlogPost handles owner PATCH /api/blog.
func (a *API) UpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	var payload api.BlogUpdate
	if err := api.Decode(r, &payload); err != nil {
		respondWithError(w, r, err)
		return
	}
	payload.Normalize()
	if err := payload.Validate(); err != nil {
		respondWithError(w, r, err)
		return
	}

	post, err := a.Store.GetBlogPost(r.Context(), payload.ID)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
		return
	}
	payload.Apply(post, a.now())

	updated, err := a.Store.UpdateBlogPost(r.Context(), post)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
		return
	}
	api.OK(w, updated, nil)
}

// DeleteBlogPost handles owner DELETE /api/blog.
func (a *API) DeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	id, err := deleteID(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	post, err := a.Store.SoftDeleteBlogPost(r.Context(), id)
	if err != nil {
		respondWithError(w, r, api.StoreError(r.Context(), err, "Blog post"))
		return
	}
	api.OK(w, post, nil)
}
