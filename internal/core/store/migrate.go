package store

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		long_description TEXT,
		thumbnail_url TEXT,
		demo_url TEXT,
		repo_url TEXT,
		tech_stack TEXT NOT NULL DEFAULT '[]',
		categories TEXT NOT NULL DEFAULT '[]',
		is_pinned INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'draft',
		display_order INTEGER NOT NULL DEFAULT 0,
		github_repo_name TEXT,
		is_github_synced INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		deleted_at BIGINT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_projects_listing ON projects(status, deleted_at);`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		excerpt TEXT,
		content TEXT NOT NULL DEFAULT '',
		cover_image_url TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		reading_time_minutes INTEGER NOT NULL DEFAULT 1,
		is_published INTEGER NOT NULL DEFAULT 0,
		published_at BIGINT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		deleted_at BIGINT
	);`,
	`CREATE INDEX IF NOT EXISTS idx_blog_posts_listing ON blog_posts(is_published, deleted_at);`,
	`CREATE TABLE IF NOT EXISTS contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		subject TEXT,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unread',
		notes TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contact_messages_status ON contact_messages(status);`,
	`CREATE TABLE IF NOT EXISTS analytics_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		page_path TEXT NOT NULL,
		referrer TEXT,
		country_code TEXT,
		device_type TEXT NOT NULL,
		session_id TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at BIGINT NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_analytics_events_created ON analytics_events(created_at);`,
	`CREATE TABLE IF NOT EXISTS site_settings (
		id TEXT PRIMARY KEY,
		key TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		description TEXT,
		updated_at BIGINT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS rate_limits (
		endpoint TEXT PRIMARY KEY,
		request_count INTEGER NOT NULL DEFAULT 0,
		window_start BIGINT NOT NULL,
		backoff_until BIGINT,
		last_429_at BIGINT
	);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, err := s.ready(ctx)
	if err != nil {
		return err
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
