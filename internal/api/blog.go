package api

import (
	"strings"
	"time"

	"github.com/folio/folio/internal/core"
	"github.com/folio/folio/internal/github"
)

const defaultReadingTime = 5

// BlogCreate is the body of POST /api/blog.
type BlogCreate struct {
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	Excerpt            string     `json:"excerpt"`
	Content            string     `json:"content"`
	CoverImageURL      *string    `json:"cover_image_url"`
	Tags               []string   `json:"tags"`
	ReadingTimeMinutes *int       `json:"reading_time_minutes"`
	IsPublished        bool       `json:"is_published"`
	PublishedAt        *time.Time `json:"published_at"`
}

// Normalize derives the slug and fills defaults.
func (b *BlogCreate) Normalize() {
	if strings.TrimSpace(b.Slug) != "" {
		b.Slug = github.Slugify(b.Slug)
	} else {
		b.Slug = github.Slugify(b.Title)
	}
	if b.ReadingTimeMinutes == nil {
		minutes := defaultReadingTime
		b.ReadingTimeMinutes = &minutes
	}
	b.Tags = normalizeList(b.Tags)
}

// Validate checks field bounds.
func (b BlogCreate) Validate() error {
	c := newChecker()
	c.length("title", b.Title, 2, 180)
	c.slug("slug", b.Slug)
	c.length("excerpt", b.Excerpt, 0, 500)
	c.length("content", b.Content, 0, 50000)
	c.url("cover_image_url", b.CoverImageURL)
	c.list("tags", b.Tags, 20, 1, 40)
	if b.ReadingTimeMinutes != nil {
		c.intRange("reading_time_minutes", *b.ReadingTimeMinutes, 1, 180)
	}
	return c.err()
}

// Post converts the payload to a new row.
func (b BlogCreate) Post() *core.BlogPost {
	post := &core.BlogPost{
		Title:         b.Title,
		Slug:          b.Slug,
		Excerpt:       b.Excerpt,
		Content:       b.Content,
		CoverImageURL: b.CoverImageURL,
		Tags:          b.Tags,
		IsPublished:   b.IsPublished,
		PublishedAt:   b.PublishedAt,
	}
	if b.ReadingTimeMinutes != nil {
		post.ReadingTimeMinutes = *b.ReadingTimeMinutes
	}
	return post
}

// BlogUpdate is the body of PATCH /api/blog.
type BlogUpdate struct {
	ID                 string              `json:"id"`
	Title              Optional[string]    `json:"title"`
	Slug               Optional[string]    `json:"slug"`
	Excerpt            Optional[string]    `json:"excerpt"`
	Content            Optional[string]    `json:"content"`
	CoverImageURL      Optional[string]    `json:"cover_image_url"`
	Tags               Optional[[]string]  `json:"tags"`
	ReadingTimeMinutes Optional[int]       `json:"reading_time_minutes"`
	IsPublished        Optional[bool]      `json:"is_published"`
	PublishedAt        Optional[time.Time] `json:"published_at"`
	Deleted            Optional[bool]      `json:"deleted"`
}

// Normalize slugifies an explicit slug.
func (u *BlogUpdate) Normalize() {
	u.ID = strings.TrimSpace(u.ID)
	if u.Slug.Present() {
		u.Slug.Value = github.Slugify(u.Slug.Value)
	}
}

func (u BlogUpdate) empty() bool {
	return !(u.Title.Set || u.Slug.Set || u.Excerpt.Set || u.Content.Set || u.CoverImageURL.Set ||
		u.Tags.Set || u.ReadingTimeMinutes.Set || u.IsPublished.Set || u.PublishedAt.Set || u.Deleted.Set)
}

// Validate requires an id, at least one field, and in-range values.
func (u BlogUpdate) Validate() error {
	c := newChecker()
	c.id("id", u.ID)
	if u.empty() {
		c.fail("_", "at least one field to update is required")
	}

	c.notNull("title", u.Title.Null)
	if u.Title.Present() {
		c.length("title", u.Title.Value, 2, 180)
	}
	c.notNull("slug", u.Slug.Null)
	if u.Slug.Present() {
		c.slug("slug", u.Slug.Value)
	}
	c.notNull("excerpt", u.Excerpt.Null)
	c.length("excerpt", u.Excerpt.Value, 0, 500)
	c.notNull("content", u.Content.Null)
	c.length("content", u.Content.Value, 0, 50000)
	c.url("cover_image_url", u.CoverImageURL.Ptr())
	c.notNull("tags", u.Tags.Null)
	c.list("tags", u.Tags.Value, 20, 1, 40)
	c.notNull("reading_time_minutes", u.ReadingTimeMinutes.Null)
	if u.ReadingTimeMinutes.Present() {
		c.intRange("reading_time_minutes", u.ReadingTimeMinutes.Value, 1, 180)
	}
	c.notNull("is_published", u.IsPublished.Null)
	c.notNull("deleted", u.Deleted.Null)
	return c.err()
}

// Apply copies the present fields onto post.
func (u BlogUpdate) Apply(post *core.BlogPost, now time.Time) {
	if u.Title.Present() {
		post.Title = u.Title.Value
	}
	if u.Slug.Present() {
		post.Slug = u.Slug.Value
	}
	if u.Excerpt.Present() {
		post.Excerpt = u.Excerpt.Value
	}
	if u.Content.Present() {
		post.Content = u.Content.Value
	}
	if u.CoverImageURL.Set {
		post.CoverImageURL = u.CoverImageURL.Ptr()
	}
	if u.Tags.Present() {
		post.Tags = u.Tags.Value
	}
	if u.ReadingTimeMinutes.Present() {
		post.ReadingTimeMinutes = u.ReadingTimeMinutes.Value
	}
	if u.IsPublished.Present() {
		post.IsPublished = u.IsPublished.Value
	}
	if u.PublishedAt.Set {
		post.PublishedAt = u.PublishedAt.Ptr()
	}
	if u.Deleted.Present() {
		post.DeletedAt = deletedStamp(u.Deleted.Value, post.DeletedAt, now)
	}
}
