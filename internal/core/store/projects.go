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

const projectColumns = `id, title, slug, description, long_description, thumbnail_url, demo_url, repo_url,
	tech_stack, categories, is_pinned, status, display_order, github_repo_name, is_github_synced,
	created_at, updated_at, deleted_at`

// ProjectFilter narrows ListProjects. PublicOnly forces published,
// non-deleted rows and ignores Status and IncludeDeleted.
type ProjectFilter struct {
	Category       string
	Search         string
	Status         core.ProjectStatus
	IncludeDeleted bool
	PublicOnly     bool
}

func (f ProjectFilter) where() *whereBuilder {
	w := &whereBuilder{}
	if category := strings.TrimSpace(f.Category); category != "" {
		w.add("categories LIKE ?", jsonElementTerm(category))
	}
	if term := likeTerm(f.Search); term != "" {
		w.add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", term, term)
	}
	if f.PublicOnly {
		w.add("status = ?", string(core.ProjectPublished))
		w.add("deleted_at IS NULL")
		return w
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if !f.IncludeDeleted {
		w.add("deleted_at IS NULL")
	}
	return w
}

// ListProjects returns one page of projects and the total matching count.
func (s *Store) ListProjects(ctx context.Context, filter ProjectFilter, page Page) ([]core.Project, int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := filter.where()

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM projects "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	args := append(append([]any{}, where.args...), page.limit(), page.offset())
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM projects
		%s
		ORDER BY is_pinned DESC, display_order ASC, created_at DESC
		LIMIT ? OFFSET ?
	`, projectColumns, where.String()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	projects := []core.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan projects: %w", err)
		}
		projects = append(projects, *project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	return projects, total, nil
}

// GetProject loads a project by id, including soft-deleted rows.
func (s *Store) GetProject(ctx context.Context, id string) (*core.Project, error) {
	return s.fetchProject(ctx, "id = ?", strings.TrimSpace(id))
}

// GetProjectBySlug loads a live project by slug.
func (s *Store) GetProjectBySlug(ctx context.Context, slug string) (*core.Project, error) {
	return s.fetchProject(ctx, "slug = ? AND deleted_at IS NULL", strings.TrimSpace(slug))
}

func (s *Store) fetchProject(ctx context.Context, predicate string, arg any) (*core.Project, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	row := s.queryRow(ctx, "SELECT "+projectColumns+" FROM projects WHERE "+predicate, arg)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch project: %w", err)
	}
	return project, nil
}

// CreateProject inserts a new project and returns the stored row.
func (s *Store) CreateProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, errors.New("project is required")
	}

	now := time.Now().UTC()
	created := *project
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Status == "" {
		created.Status = core.ProjectPublished
	}

	_, err = s.exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, projectArgs(&created)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create project: %w", err)
	}

	return s.GetProject(ctx, created.ID)
}

// UpdateProject overwrites every mutable column of an existing project.
func (s *Store) UpdateProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if project == nil || strings.TrimSpace(project.ID) == "" {
		return nil, errors.New("project id is required")
	}

	result, err := s.exec(ctx, `
		UPDATE projects SET
			title = ?, slug = ?, description = ?, long_description = ?,
			thumbnail_url = ?, demo_url = ?, repo_url = ?,
			tech_stack = ?, categories = ?, is_pinned = ?, status = ?, display_order = ?,
			github_repo_name = ?, is_github_synced = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?
	`,
		project.Title, project.Slug, project.Description, nullString(project.LongDescription),
		nullString(project.ThumbnailURL), nullString(project.DemoURL), nullString(project.RepoURL),
		encodeStrings(project.TechStack), encodeStrings(project.Categories), boolInt(project.IsPinned),
		string(project.Status), project.DisplayOrder,
		nullString(project.GitHubRepoName), boolInt(project.IsGitHubSynced), time.Now().UTC().Unix(),
		nullUnix(project.DeletedAt), project.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("update project: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return s.GetProject(ctx, project.ID)
}

// SoftDeleteProject stamps deleted_at on a project.
func (s *Store) SoftDeleteProject(ctx context.Context, id string) (*core.Project, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Unix()
	result, err := s.exec(ctx, "UPDATE projects SET deleted_at = ?, updated_at = ? WHERE id = ?", now, now, strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("delete project: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return s.GetProject(ctx, id)
}

// GitHubSyncFlags maps each existing slug to its is_github_synced flag.
// Soft-deleted rows are included since they still own their slug.
func (s *Store) GitHubSyncFlags(ctx context.Context, slugs []string) (map[string]bool, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	flags := make(map[string]bool, len(slugs))
	if len(slugs) == 0 {
		return flags, nil
	}

	placeholders := make([]string, len(slugs))
	args := make([]any, len(slugs))
	for i, slug := range slugs {
		placeholders[i] = "?"
		args[i] = slug
	}

	rows, err := s.query(ctx, fmt.Sprintf(
		"SELECT slug, is_github_synced FROM projects WHERE slug IN (%s)",
		strings.Join(placeholders, ", "),
	), args...)
	if err != nil {
		return nil, fmt.Errorf("fetch project sync flags: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	for rows.Next() {
		var (
			slug   string
			synced int
		)
		if err := rows.Scan(&slug, &synced); err != nil {
			return nil, fmt.Errorf("scan project sync flags: %w", err)
		}
		flags[slug] = synced != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch project sync flags: %w", err)
	}

	return flags, nil
}

// UpsertSyncedProject inserts or refreshes a GitHub-synced project by slug.
// Rows owned by the site owner (is_github_synced = 0) are never overwritten.
func (s *Store) UpsertSyncedProject(ctx context.Context, project *core.Project) (*core.Project, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if project == nil || strings.TrimSpace(project.Slug) == "" {
		return nil, errors.New("project slug is required")
	}

	now := time.Now().UTC()
	row := *project
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.IsGitHubSynced = true
	row.DeletedAt = nil

	_, err = s.exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			long_description = excluded.long_description,
			demo_url = excluded.demo_url,
			repo_url = excluded.repo_url,
			tech_stack = excluded.tech_stack,
			categories = excluded.categories,
			status = excluded.status,
			display_order = excluded.display_order,
			github_repo_name = excluded.github_repo_name,
			is_github_synced = excluded.is_github_synced,
			updated_at = excluded.updated_at
		WHERE projects.is_github_synced = 1
	`, projectArgs(&row)...)
	if err != nil {
		return nil, fmt.Errorf("upsert synced project: %w", err)
	}

	return s.fetchProject(ctx, "slug = ?", row.Slug)
}

func projectArgs(p *core.Project) []any {
	return []any{
		p.ID, p.Title, p.Slug, p.Description, nullString(p.LongDescription),
		nullString(p.ThumbnailURL), nullString(p.DemoURL), nullString(p.RepoURL),
		encodeStrings(p.TechStack), encodeStrings(p.Categories), boolInt(p.IsPinned),
		string(p.Status), p.DisplayOrder, nullString(p.GitHubRepoName), boolInt(p.IsGitHubSynced),
		p.CreatedAt.UTC().Unix(), p.UpdatedAt.UTC().Unix(), nullUnix(p.DeletedAt),
	}
}

func scanProject(row rowScanner) (*core.Project, error) {
	var (
		project         core.Project
		longDescription sql.NullString
		thumbnailURL    sql.NullString
		demoURL         sql.NullString
		repoURL         sql.NullString
		techStack       string
		categories      string
		isPinned        int
		status          string
		repoName        sql.NullString
		synced          int
		createdAt       int64
		updatedAt       int64
		deletedAt       sql.NullInt64
	)

	if err := row.Scan(
		&project.ID, &project.Title, &project.Slug, &project.Description, &longDescription,
		&thumbnailURL, &demoURL, &repoURL, &techStack, &categories, &isPinned, &status,
		&project.DisplayOrder, &repoName, &synced, &createdAt, &updatedAt, &deletedAt,
	); err != nil {
		return nil, err
	}

	project.LongDescription = stringPtr(longDescription)
	project.ThumbnailURL = stringPtr(thumbnailURL)
	project.DemoURL = stringPtr(demoURL)
	project.RepoURL = stringPtr(repoURL)
	project.TechStack = decodeStrings(techStack)
	project.Categories = decodeStrings(categories)
	project.IsPinned = isPinned != 0
	project.Status = core.ProjectStatus(status)
	project.GitHubRepoName = stringPtr(repoName)
	project.IsGitHubSynced = synced != 0
	project.CreatedAt = unixTime(createdAt)
	project.UpdatedAt = unixTime(updatedAt)
	project.DeletedAt = timePtr(deletedAt)

	return &project, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
