package api

import (
	"strings"

	"github.com/folio/folio/internal/core"
	"github.com/folio/folio/internal/core/store"
)

// ContactSubmit is the body of the public POST /api/contact.
type ContactSubmit struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Subject *string `json:"subject"`
	Message string  `json:"message"`
}

// Normalize trims surrounding whitespace and drops a blank subject.
func (s *ContactSubmit) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Message = strings.TrimSpace(s.Message)
	if s.Subject != nil {
		subject := strings.TrimSpace(*s.Subject)
		if subject == "" {
			s.Subject = nil
		} else {
			s.Subject = &subject
		}
	}
}

// Validate checks field bounds.
func (s ContactSubmit) Validate() error {
	c := newChecker()
	c.length("name", s.Name, 2, 120)
	c.email("email", s.Email)
	if s.Subject != nil {
		c.length("subject", *s.Subject, 0, 240)
	}
	c.length("message", s.Message, 10, 8000)
	return c.err()
}

// ContactMessage converts the payload to an unread message from ip and userAgent.
func (s ContactSubmit) ContactMessage(ip, userAgent string) *core.ContactMessage {
	msg := &core.ContactMessage{
		Name:    s.Name,
		Email:   s.Email,
		Subject: s.Subject,
		Message: s.Message,
		Status:  core.ContactUnread,
	}
	if ip != "" {
		msg.IPAddress = &ip
	}
	if userAgent != "" {
		msg.UserAgent = &userAgent
	}
	return msg
}

// ContactUpdate is the body of the owner PATCH /api/contact.
type ContactUpdate struct {
	ID     string                       `json:"id"`
	Status Optional[core.ContactStatus] `json:"status"`
	Notes  Optional[string]             `json:"notes"`
}

// Validate requires an id and at least one of status or notes.
func (u ContactUpdate) Validate() error {
	c := newChecker()
	c.id("id", u.ID)
	if !u.Status.Set && !u.Notes.Set {
		c.fail("_", "at least one field to update is required")
	}
	c.notNull("status", u.Status.Null)
	if u.Status.Present() && !u.Status.Value.Valid() {
		c.fail("status", "must be one of unread, read, replied, archived")
	}
	if u.Notes.Present() {
		c.length("notes", u.Notes.Value, 0, 4000)
	}
	return c.err()
}

// StoreUpdate converts the payload for the store.
func (u ContactUpdate) StoreUpdate() store.ContactUpdate {
	return store.ContactUpdate{
		Status:     u.Status.Ptr(),
		Notes:      u.Notes.Ptr(),
		ClearNotes: u.Notes.Set && u.Notes.Null,
	}
}
