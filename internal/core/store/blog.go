package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio/folio/internal/core"
)

const blogColumns = `id, title, slug, excerpt, content, cover_image_url, tags, reading_time_minutes,
	is_published, published_at, created_at, updated_at, deleted_at`

// BlogFilter narrows ListBlogPosts. PublicOnly forces published,
// non-deleted rows.
type BlogFilter struct {
	Tag            string
	Search         string
	IsPublished    *bool
	IncludeDeleted bool
	PublicOnly     bool
}

func (f BlogFilter) where() *whereBuilder {
	w := &whereBuilder{}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		w.add("tags LIKE ?", jsonElementTerm(tag))
	}
	if term := likeTerm(f.Search); term != "" {
		w.add("(LOWER(title) LIKE ? OR LOWER(COALESCE(excerpt, '')) LIKE ?)", term, term)
	}
	if f.PublicOnly {
		w.add("is_published = 1")
		w.add("deleted_at IS NULL")
		return w
	}
	if f.IsPublished != nil {
		w.add("is_published = ?", boolInt(*f.IsPublished))
	}
	if !f.IncludeDeleted {
		w.add("deleted_at IS NULL")
	}
	return w
}

// ListBlogPosts returns one page of posts, newest publication first.
func (s *Store) ListBlogPosts(ctx context.Context, filter BlogFilter, page Page) ([]core.BlogPost, int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := filter.where()

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM blog_posts "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blog posts: %w", err)
	}

	args := append(append([]any{}, where.args...), page.limit(), page.offset())
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM blog_posts
		%s
		ORDER BY COALESCE(published_at, 0) DESC, created_at DESC
		LIMIT ? OFFSET ?
	`, blogColumns, where.String()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blog posts: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	posts := []core.BlogPost{}
	for rows.Next() {
		post, err := scanBlogPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan blog posts: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list blog posts: %w", err)
	}

	return posts, total, nil
}

// GetBlogPost loads a post by id, including soft-deleted rows.
func (s *Store) GetBlogPost(ctx context.Context, id string) (*core.BlogPost, error) {
	return s.fetchBlogPost(ctx, "id = ?", strings.TrimSpace(id))
}

// GetBlogPostBySlug loads a post by slug. publicOnly hides drafts and
// deleted posts; otherwise includeDeleted decides whether deleted posts match.
func (s *Store) GetBlogPostBySlug(ctx context.Context, slug string, publicOnly, includeDeleted bool) (*core.BlogPost, error) {
	predicate := "slug = ?"
	switch {
	case publicOnly:
		predicate += " AND is_published = 1 AND deleted_at IS NULL"
	case !includeDeleted:
		predicate += " AND deleted_at IS NULL"
	}
	return s.fetchBlogPost(ctx, predicate, strings.TrimSpace(slug))
}

func (s *Store) fetchBlogPost(ctx context.Context, predicate string, arg any) (*core.BlogPost, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	post, err := scanBlogPost(s.queryRow(ctx, "SELECT "+blogColumns+" FROM blog_posts WHERE "+predicate, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch blog post: %w", err)
	}
	return post, nil
}

// CreateBlogPost inserts a post. Publishing without a publication time
// stamps the current time.
func (s *Store) CreateBlogPost(ctx context.Context, post *core.BlogPost) (*core.BlogPost, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, errors.New("blog post is required")
	}

	now := time.Now().UTC()
	created := *post
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	stampPublished(&created, now)

	_, err = s.exec(ctx, `
		INSERT INTO blog_posts (`+blogColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		created.ID, created.Title, created.Slug, created.Excerpt, created.Content,
		nullString(created.CoverImageURL), encodeStrings(created.Tags), created.ReadingTimeMinutes,
		boolInt(created.IsPublished), nullUnix(created.PublishedAt),
		created.CreatedAt.Unix(), created.UpdatedAt.Unix(), nullUnix(created.DeletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create blog post: %w", err)
	}

	return s.GetBlogPost(ctx, created.ID)
}

// UpdateBlogPost overwrites every mutable column of an existing post.
func (s *Store) UpdateBlogPost(ctx context.Context, post *core.BlogPost) (*core.BlogPost, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if post == nil || strings.TrimSpace(post.ID) == "" {
		return nil, errors.New("blog post id is required")
	}

	now := time.Now().UTC()
	updated := *post
	stampPublished(&updated, now)

	result, err := s.exec(ctx, `
		UPDATE blog_posts SET
			title = ?, slug = ?, excerpt = ?, content = ?, cover_image_url = ?, tags = ?,
			reading_time_minutes = ?, is_published = ?, published_at = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`,
		updated.Title, updated.Slug, updated.Excerpt, updated.Content, nullString(updated.CoverImageURL),
		encodeStrings(updated.Tags), updated.ReadingTimeMinutes, boolInt(updated.IsPublished),
		nullUnix(updated.PublishedAt), now.Unix(), nullUnix(updated.DeletedAt), updated.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update blog post: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return s.GetBlogPost(ctx, updated.ID)
}

// SoftDeleteBlogPost stamps deleted_at on a post.
func (s *Store) SoftDeleteBlogPost(ctx context.Context, id string) (*core.BlogPost, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Unix()
	result, err := s.exec(ctx, "UPDATE blog_posts SET deleted_at = ?, updated_at = ? WHERE id = ?", now, now, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("delete blog post: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return s.GetBlogPost(ctx, id)
}

func stampPublished(post *core.BlogPost, now time.Time) {
	if post.IsPublished && post.PublishedAt == nil {
		stamp := now
		post.PublishedAt = &stamp
	}
	if post.ReadingTimeMinutes < 1 {
		post.ReadingTimeMinutes = 1
	}
}

func scanBlogPost(row rowScanner) (*core.BlogPost, error) {
	var (
		post        core.BlogPost
		excerpt     sql.NullString
		coverImage  sql.NullString
		tags        string
		published   int
		publishedAt sql.NullInt64
		createdAt   int64
		updatedAt   int64
		deletedAt   sql.NullInt64
	)

	if err := row.Scan(
		&post.ID, &post.Title, &post.Slug, &excerpt, &post.Content, &coverImage, &tags,
		&post.ReadingTimeMinutes, &published, &publishedAt, &createdAt, &updatedAt, &deletedAt,
	); err != nil {
		return nil, err
	}

	post.Excerpt = excerpt.String
	post.CoverImageURL = stringPtr(coverImage)
	post.Tags = decodeStrings(tags)
	post.IsPublished = published != 0
	post.PublishedAt = timePtr(publishedAt)
	post.CreatedAt = unixTime(createdAt)
	post.UpdatedAt = unixTime(updatedAt)
	post.DeletedAt = timePtr(deletedAt)

	return &post, nil
}
