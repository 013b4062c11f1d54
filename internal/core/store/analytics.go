package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/folio/folio/internal/core"
)

// InsertAnalyticsEvent stores an already sanitized event.
func (s *Store) InsertAnalyticsEvent(ctx context.Context, event *core.AnalyticsEvent) (*core.AnalyticsEvent, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors.New("analytics event is required")
	}

	stored := *event
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Metadata == nil {
		stored.Metadata = map[string]core.MetadataValue{}
	}

	metadata, err := json.Marshal(stored.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode analytics metadata: %w", err)
	}

	_, err = s.exec(ctx, `
		INSERT INTO analytics_events (id, event_type, page_path, referrer, country_code, device_type, session_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		stored.ID, string(stored.EventType), stored.PagePath, nullString(stored.Referrer),
		nullString(stored.CountryCode), string(stored.DeviceType), nullString(stored.SessionID),
		string(metadata), stored.CreatedAt.UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert analytics event: %w", err)
	}

	return &stored, nil
}

// ListAnalyticsEvents returns events created at or after since, oldest
// first. An empty eventType matches every type.
func (s *Store) ListAnalyticsEvents(ctx context.Context, since time.Time, eventType core.EventType) ([]core.AnalyticsEvent, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	where := &whereBuilder{}
	where.add("created_at >= ?", since.UTC().Unix())
	if eventType != "" {
		where.add("event_type = ?", string(eventType))
	}

	rows, err := s.query(ctx, `
		SELECT id, event_type, page_path, referrer, country_code, device_type, session_id, metadata, created_at
		FROM analytics_events
		`+where.String()+`
		ORDER BY created_at ASC
	`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	events := []core.AnalyticsEvent{}
	for rows.Next() {
		var (
			event       core.AnalyticsEvent
			eventTypeV  string
			referrer    sql.NullString
			countryCode sql.NullString
			deviceType  string
			sessionID   sql.NullString
			metadata    string
			createdAt   int64
		)
		if err := rows.Scan(&event.ID, &eventTypeV, &event.PagePath, &referrer, &countryCode,
			&deviceType, &sessionID, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("scan analytics events: %w", err)
		}

		event.EventType = core.EventType(eventTypeV)
		event.Referrer = stringPtr(referrer)
		event.CountryCode = stringPtr(countryCode)
		event.DeviceType = core.DeviceType(deviceType)
		event.SessionID = stringPtr(sessionID)
		event.Metadata = map[string]core.MetadataValue{}
		_ = json.Unmarshal([]byte(metadata), &event.Metadata)
		event.CreatedAt = unixTime(createdAt)

		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}

	return events, nil
}
