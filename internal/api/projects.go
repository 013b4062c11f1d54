package api

import (
	"strings"
	"time"

	"github.com/folio/folio/internal/core"
	"github.com/folio/folio/internal/github"
)

// ProjectCreate is the body of POST /api/projects.
type ProjectCreate struct {
	Title           string             `json:"title"`
	Slug            string             `json:"slug"`
	Description     string             `json:"description"`
	LongDescription *string            `json:"long_description"`
	ThumbnailURL    *string            `json:"thumbnail_url"`
	DemoURL         *string            `json:"demo_url"`
	RepoURL         *string            `json:"repo_url"`
	TechStack       []string           `json:"tech_stack"`
	Categories      []string           `json:"categories"`
	IsPinned        bool               `json:"is_pinned"`
	Status          core.ProjectStatus `json:"status"`
	DisplayOrder    int                `json:"display_order"`
}

// Normalize derives the slug from slug or title and fills defaults.
func (p *ProjectCreate) Normalize() {
	if strings.TrimSpace(p.Slug) != "" {
		p.Slug = github.Slugify(p.Slug)
	} else {
		p.Slug = github.Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = core.ProjectPublished
	}
	p.TechStack = normalizeList(p.TechStack)
	p.Categories = normalizeList(p.Categories)
}

// Validate checks field bounds.
func (p ProjectCreate) Validate() error {
	c := newChecker()
	c.length("title", p.Title, 2, 160)
	c.slug("slug", p.Slug)
	c.length("description", p.Description, 1, 600)
	if p.LongDescription != nil {
		c.length("long_description", *p.LongDescription, 0, 12000)
	}
	c.url("thumbnail_url", p.ThumbnailURL)
	c.url("demo_url", p.DemoURL)
	c.url("repo_url", p.RepoURL)
	c.list("tech_stack", p.TechStack, 40, 1, 80)
	c.list("categories", p.Categories, 20, 1, 40)
	if !p.Status.Valid() {
		c.fail("status", "must be one of draft, published, archived")
	}
	if p.DisplayOrder < 0 {
		c.fail("display_order", "must be at least 0")
	}
	return c.err()
}

// Project converts the payload to a new row.
func (p ProjectCreate) Project() *core.Project {
	return &core.Project{
		Title:           p.Title,
		Slug:            p.Slug,
		Description:     p.Description,
		LongDescription: p.LongDescription,
		ThumbnailURL:    p.ThumbnailURL,
		DemoURL:         p.DemoURL,
		RepoURL:         p.RepoURL,
		TechStack:       p.TechStack,
		Categories:      p.Categories,
		IsPinned:        p.IsPinned,
		Status:          p.Status,
		DisplayOrder:    p.DisplayOrder,
	}
}

// ProjectUpdate is the body of PATCH /api/projects. Absent fields are left
// unchanged; nullable fields accept null to clear them. Deleted toggles the
// soft delete stamp.
type ProjectUpdate struct {
	ID              string                       `json:"id"`
	Title           Optional[string]             `json:"title"`
	Slug            Optional[string]             `json:"slug"`
	Description     Optional[string]             `json:"description"`
	LongDescription Optional[string]             `json:"long_description"`
	ThumbnailURL    Optional[string]             `json:"thumbnail_url"`
	DemoURL         Optional[string]             `json:"demo_url"`
	RepoURL         Optional[string]             `json:"repo_url"`
	TechStack       Optional[[]string]           `json:"tech_stack"`
	Categories      Optional[[]string]           `json:"categories"`
	IsPinned        Optional[bool]               `json:"is_pinned"`
	Status          Optional[core.ProjectStatus] `json:"status"`
	DisplayOrder    Optional[int]                `json:"display_order"`
	Deleted         Optional[bool]               `json:"deleted"`
}

// Normalize slugifies an explicit slug.
func (u *ProjectUpdate) Normalize() {
	u.ID = strings.TrimSpace(u.ID)
	if u.Slug.Present() {
		u.Slug.Value = github.Slugify(u.Slug.Value)
	}
}

func (u ProjectUpdate) empty() bool {
	return !(u.Title.Set || u.Slug.Set || u.Description.Set || u.LongDescription.Set ||
		u.ThumbnailURL.Set || u.DemoURL.Set || u.RepoURL.Set || u.TechStack.Set ||
		u.Categories.Set || u.IsPinned.Set || u.Status.Set || u.DisplayOrder.Set || u.Deleted.Set)
}

// Validate requires an id, at least one field, and in-range values.
func (u ProjectUpdate) Validate() error {
	c := newChecker()
	c.id("id", u.ID)
	if u.empty() {
		c.fail("_", "at least one field to update is required")
	}

	c.notNull("title", u.Title.Null)
	if u.Title.Present() {
		c.length("title", u.Title.Value, 2, 160)
	}
	c.notNull("slug", u.Slug.Null)
	if u.Slug.Present() {
		c.slug("slug", u.Slug.Value)
	}
	c.notNull("description", u.Description.Null)
	if u.Description.Present() {
		c.length("description", u.Description.Value, 1, 600)
	}
	if u.LongDescription.Present() {
		c.length("long_description", u.LongDescription.Value, 0, 12000)
	}
	c.url("thumbnail_url", u.ThumbnailURL.Ptr())
	c.url("demo_url", u.DemoURL.Ptr())
	c.url("repo_url", u.RepoURL.Ptr())
	c.notNull("tech_stack", u.TechStack.Null)
	c.list("tech_stack", u.TechStack.Value, 40, 1, 80)
	c.notNull("categories", u.Categories.Null)
	c.list("categories", u.Categories.Value, 20, 1, 40)
	c.notNull("is_pinned", u.IsPinned.Null)
	c.notNull("status", u.Status.Null)
	if u.Status.Present() && !u.Status.Value.Valid() {
		c.fail("status", "must be one of draft, published, archived")
	}
	c.notNull("display_order", u.DisplayOrder.Null)
	if u.DisplayOrder.Present() && u.DisplayOrder.Value < 0 {
		c.fail("display_order", "must be at least 0")
	}
	c.notNull("deleted", u.Deleted.Null)
	return c.err()
}

// Apply copies the present fields onto p.
func (u ProjectUpdate) Apply(p *core.Project, now time.Time) {
	if u.Title.Present() {
		p.Title = u.Title.Value
	}
	if u.Slug.Present() {
		p.Slug = u.Slug.Value
	}
	if u.Description.Present() {
		p.Description = u.Description.Value
	}
	if u.LongDescription.Set {
		p.LongDescription = u.LongDescription.Ptr()
	}
	if u.ThumbnailURL.Set {
		p.ThumbnailURL = u.ThumbnailURL.Ptr()
	}
	if u.DemoURL.Set {
		p.DemoURL = u.DemoURL.Ptr()
	}
	if u.RepoURL.Set {
		p.RepoURL = u.RepoURL.Ptr()
	}
	if u.TechStack.Present() {
		p.TechStack = u.TechStack.Value
	}
	if u.Categories.Present() {
		p.Categories = u.Categories.Value
	}
	if u.IsPinned.Present() {
		p.IsPinned = u.IsPinned.Value
	}
	if u.Status.Present() {
		p.Status = u.Status.Value
	}
	if u.DisplayOrder.Present() {
		p.DisplayOrder = u.DisplayOrder.Value
	}
	if u.Deleted.Present() {
		p.DeletedAt = deletedStamp(u.Deleted.Value, p.DeletedAt, now)
	}
}

// deletedStamp returns the deleted_at value for a soft delete toggle. An
// already deleted row keeps its original stamp.
func deletedStamp(deleted bool, current *time.Time, now time.Time) *time.Time {
	if !deleted {
		return nil
	}
	if current != nil {
		return current
	}
	stamp := now.UTC()
	return &stamp
}

// ProjectQuery holds the list filters of GET /api/projects.
type ProjectQuery struct {
	Category       string
	Search         string
	Status         core.ProjectStatus
	IncludeDeleted bool
}
