// Package analytics sanitizes first-party analytics events and aggregates
// them into the owner dashboard summary.
package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/folio/folio/internal/core"
	errwrap "github.com/folio/folio/internal/errors"
)

// Input is the raw body of POST /api/analytics.
type Input struct {
	EventType   core.EventType `json:"event_type"`
	PagePath    *string        `json:"page_path"`
	Referrer    *string        `json:"referrer"`
	CountryCode *string        `json:"country_code"`
	DeviceType  *string        `json:"device_type"`
	SessionID   *string        `json:"session_id"`
	Metadata    Metadata       `json:"metadata"`
}

// Validate checks the shape of the payload before sanitizing.
func (in Input) Validate() error {
	fields := errwrap.FieldErrors{}
	if !in.EventType.Valid() {
		fields.Add("event_type", "must be one of page_view, project_view, cv_download, contact_open")
	}
	if in.PagePath != nil {
		if n := utf8.RuneCountInString(*in.PagePath); n < 1 || n > maxPagePath {
			fields.Add("page_path", "must be 1 to 500 characters")
		}
	}
	if in.Referrer != nil && utf8.RuneCountInString(*in.Referrer) > maxReferrer {
		fields.Add("referrer", "must be at most 2048 characters")
	}
	if in.CountryCode != nil && utf8.RuneCountInString(*in.CountryCode) != 2 {
		fields.Add("country_code", "must be exactly 2 characters")
	}
	if in.DeviceType != nil && !validDevice(core.DeviceType(*in.DeviceType)) {
		fields.Add("device_type", "must be one of desktop, mobile, tablet")
	}
	if in.SessionID != nil {
		if n := utf8.RuneCountInString(*in.SessionID); n < 4 || n > maxSessionID {
			fields.Add("session_id", "must be 4 to 120 characters")
		}
	}
	if fields.Empty() {
		return nil
	}
	return errwrap.NewValidationError("Invalid request payload.", fields)
}

// MetadataEntry is one metadata key with its raw JSON value.
type MetadataEntry struct {
	Key   string
	Value json.RawMessage
}

// Metadata keeps the client's key order so that the key cap is applied to
// the first keys sent.
type Metadata []MetadataEntry

// UnmarshalJSON decodes a JSON object into ordered entries. null decodes to
// an empty list.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	*m = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("metadata must be an object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("metadata key %v is not a string", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		*m = append(*m, MetadataEntry{Key: key, Value: value})
	}

	_, err = dec.Token()
	return err
}

// SessionFrom returns the session id used for rate limiting: the body value
// when present, otherwise the X-Session-Id header.
func SessionFrom(in Input, header string) string {
	if in.SessionID != nil {
		return *in.SessionID
	}
	return strings.TrimSpace(header)
}
