package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/folio/folio/internal/core"
)

const settingColumns = `id, key, value, description, updated_at`

// GetSetting loads a setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (*core.Setting, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	setting, err := scanSetting(s.queryRow(ctx, "SELECT "+settingColumns+" FROM site_settings WHERE key = ?", strings.TrimSpace(key)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch setting: %w", err)
	}
	return setting, nil
}

// ListSettings returns one page of settings ordered by key. search matches
// key or description.
func (s *Store) ListSettings(ctx context.Context, search string, page Page) ([]core.Setting, int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := &whereBuilder{}
	if term := likeTerm(search); term != "" {
		where.add("(LOWER(key) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)", term, term)
	}

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM site_settings "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count settings: %w", err)
	}

	args := append(append([]any{}, where.args...), page.limit(), page.offset())
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM site_settings
		%s
		ORDER BY key ASC
		LIMIT ? OFFSET ?
	`, settingColumns, where.String()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	settings := []core.Setting{}
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan settings: %w", err)
		}
		settings = append(settings, *setting)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list settings: %w", err)
	}

	return settings, total, nil
}

// UpsertSetting inserts or replaces the value and description of a key.
func (s *Store) UpsertSetting(ctx context.Context, key string, value json.RawMessage, description *string) (*core.Setting, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("setting key is required")
	}
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	if !json.Valid(value) {
		return nil, errors.New("setting value must be valid JSON")
	}

	_, err = s.exec(ctx, `
		INSERT INTO site_settings (`+settingColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			description = excluded.description,
			updated_at = excluded.updated_at
	`, uuid.NewString(), key, string(value), nullString(description), time.Now().UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}

	return s.GetSetting(ctx, key)
}

// DeleteSetting removes a setting by key, or by id when key is empty.
func (s *Store) DeleteSetting(ctx context.Context, key, id string) (*core.Setting, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	column, value := "key", strings.TrimSpace(key)
	if value == "" {
		column, value = "id", strings.TrimSpace(id)
	}
	if value == "" {
		return nil, errors.New("setting key or id is required")
	}

	setting, err := scanSetting(s.queryRow(ctx, "SELECT "+settingColumns+" FROM site_settings WHERE "+column+" = ?", value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch setting: %w", err)
	}

	if _, err := s.exec(ctx, "DELETE FROM site_settings WHERE id = ?", setting.ID); err != nil {
		return nil, fmt.Errorf("delete setting: %w", err)
	}
	return setting, nil
}

func scanSetting(row rowScanner) (*core.Setting, error) {
	var (
		setting     core.Setting
		value       string
		description sql.NullString
		updatedAt   int64
	)
	if err := row.Scan(&setting.ID, &setting.Key, &value, &description, &updatedAt); err != nil {
		return nil, err
	}
	setting.Value = json.RawMessage(value)
	setting.Description = stringPtr(description)
	setting.UpdatedAt = unixTime(updatedAt)
	return &setting, nil
}
