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

const contactColumns = `id, name, email, subject, message, status, notes, ip_address, user_agent, created_at, updated_at`

// ContactFilter narrows ListContactMessages.
type ContactFilter struct {
	Status core.ContactStatus
	Search string
}

// CreateContactMessage stores a submitted message as unread.
func (s *Store) CreateContactMessage(ctx context.Context, msg *core.ContactMessage) (*core.ContactMessage, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errors.New("contact message is required")
	}

	now := time.Now().UTC()
	created := *msg
	created.ID = uuid.NewString()
	created.Status = core.ContactUnread
	created.CreatedAt = now
	created.UpdatedAt = now

	_, err = s.exec(ctx, `
		INSERT INTO contact_messages (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		created.ID, created.Name, created.Email, nullString(created.Subject), created.Message,
		string(created.Status), nullString(created.Notes), nullString(created.IPAddress),
		nullString(created.UserAgent), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}

	return &created, nil
}

// ListContactMessages returns one page of messages, newest first.
func (s *Store) ListContactMessages(ctx context.Context, filter ContactFilter, page Page) ([]core.ContactMessage, int, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, 0, err
	}

	where := &whereBuilder{}
	if filter.Status != "" {
		where.add("status = ?", string(filter.Status))
	}
	if term := likeTerm(filter.Search); term != "" {
		where.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(COALESCE(subject, '')) LIKE ?)", term, term, term)
	}

	var total int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM contact_messages "+where.String(), where.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	args := append(append([]any{}, where.args...), page.limit(), page.offset())
	rows, err := s.query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM contact_messages
		%s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, contactColumns, where.String()), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	messages := []core.ContactMessage{}
	for rows.Next() {
		msg, err := scanContactMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact messages: %w", err)
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}

	return messages, total, nil
}

// ContactUpdate carries owner triage changes. A nil field is left as is;
// ClearNotes sets notes to NULL.
type ContactUpdate struct {
	Status     *core.ContactStatus
	Notes      *string
	ClearNotes bool
}

// UpdateContactMessage applies triage changes to a message.
func (s *Store) UpdateContactMessage(ctx context.Context, id string, update ContactUpdate) (*core.ContactMessage, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	id = strings.TrimSpace(id)
	current, err := s.GetContactMessage(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Status != nil {
		current.Status = *update.Status
	}
	switch {
	case update.ClearNotes:
		current.Notes = nil
	case update.Notes != nil:
		current.Notes = update.Notes
	}

	now := time.Now().UTC()
	_, err = s.exec(ctx, "UPDATE contact_messages SET status = ?, notes = ?, updated_at = ? WHERE id = ?",
		string(current.Status), nullString(current.Notes), now.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("update contact message: %w", err)
	}

	return s.GetContactMessage(ctx, id)
}

// GetContactMessage loads a message by id.
func (s *Store) GetContactMessage(ctx context.Context, id string) (*core.ContactMessage, error) {
	ctx, err := s.ready(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := scanContactMessage(s.queryRow(ctx, "SELECT "+contactColumns+" FROM contact_messages WHERE id = ?", strings.TrimSpace(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch contact message: %w", err)
	}
	return msg, nil
}

func scanContactMessage(row rowScanner) (*core.ContactMessage, error) {
	var (
		msg       core.ContactMessage
		subject   sql.NullString
		status    string
		notes     sql.NullString
		ipAddress sql.NullString
		userAgent sql.NullString
		createdAt int64
		updatedAt int64
	)

	if err := row.Scan(
		&msg.ID, &msg.Name, &msg.Email, &subject, &msg.Message, &status, &notes,
		&ipAddress, &userAgent, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	msg.Subject = stringPtr(subject)
	msg.Status = core.ContactStatus(status)
	msg.Notes = stringPtr(notes)
	msg.IPAddress = stringPtr(ipAddress)
	msg.UserAgent = stringPtr(userAgent)
	msg.CreatedAt = unixTime(createdAt)
	msg.UpdatedAt = unixTime(updatedAt)

	return &msg, nil
}
