package api

import (
	"encoding/json"
	"strings"
)

// SettingUpsert is the body of POST and PATCH /api/settings. Value may be
// any JSON document; an absent value is stored as null.
type SettingUpsert struct {
	Key         string          `json:"key"`
	Value       json.RawMessage `json:"value"`
	Description *string         `json:"description"`
}

// Normalize trims the key.
func (s *SettingUpsert) Normalize() {
	s.Key = strings.TrimSpace(s.Key)
	if len(s.Value) == 0 {
		s.Value = json.RawMessage("null")
	}
}

// Validate checks key and description bounds.
func (s SettingUpsert) Validate() error {
	c := newChecker()
	c.length("key", s.Key, 1, 120)
	if s.Description != nil {
		c.length("description", *s.Description, 0, 300)
	}
	return c.err()
}

// SettingDelete identifies a setting by key or id.
type SettingDelete struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

// Validate requires a key of 1 to 120 characters or a valid id.
func (d SettingDelete) Validate() error {
	c := newChecker()
	switch {
	case strings.TrimSpace(d.Key) != "":
		c.length("key", strings.TrimSpace(d.Key), 1, 120)
	case strings.TrimSpace(d.ID) != "":
		c.id("id", d.ID)
	default:
		c.fail("key", "key or id is required")
	}
	return c.err()
}

// IDPayload identifies a row for DELETE requests.
type IDPayload struct {
	ID string `json:"id"`
}

// Validate requires a valid id.
func (p IDPayload) Validate() error {
	c := newChecker()
	c.id("id", p.ID)
	return c.err()
}
