package api

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/folio/folio/internal/core"
	errwrap "github.com/folio/folio/internal/errors"
)

const invalidQuery = "Invalid query parameters."

// queryReader validates query parameters, collecting field errors.
type queryReader struct {
	values url.Values
	fields errwrap.FieldErrors
}

func newQueryReader(values url.Values) *queryReader {
	return &queryReader{values: values, fields: errwrap.FieldErrors{}}
}

// text returns the trimmed parameter, failing when it exceeds maxLen runes.
func (q *queryReader) text(name string, maxLen int) string {
	value := strings.TrimSpace(q.values.Get(name))
	if utf8.RuneCountInString(value) > maxLen {
		q.fields.Add(name, "must be at most "+strconv.Itoa(maxLen)+" characters")
		return ""
	}
	return value
}

// flag accepts only "true" or "false".
func (q *queryReader) flag(name string) bool {
	switch strings.TrimSpace(q.values.Get(name)) {
	case "":
		return false
	case "true":
		return true
	case "false":
		return false
	default:
		q.fields.Add(name, "must be true or false")
		return false
	}
}

func (q *queryReader) err() error {
	if q.fields.Empty() {
		return nil
	}
	return errwrap.NewValidationError(invalidQuery, q.fields)
}

// ParseProjectQuery reads the GET /api/projects filters.
func ParseProjectQuery(values url.Values) (ProjectQuery, error) {
	q := newQueryReader(values)
	out := ProjectQuery{
		Category:       q.text("category", 40),
		Search:         q.text("search", 120),
		Status:         core.ProjectStatus(q.text("status", 20)),
		IncludeDeleted: q.flag("includeDeleted"),
	}
	if out.Status != "" && !out.Status.Valid() {
		q.fields.Add("status", "must be one of draft, published, archived")
	}
	return out, q.err()
}

// BlogQuery holds the GET /api/blog filters.
type BlogQuery struct {
	Slug           string
	Tag            string
	Search         string
	IsPublished    *bool
	IncludeDeleted bool
}

// ParseBlogQuery reads the GET /api/blog filters.
func ParseBlogQuery(values url.Values) (BlogQuery, error) {
	q := newQueryReader(values)
	out := BlogQuery{
		Slug:           q.text("slug", 120),
		Tag:            q.text("tag", 40),
		Search:         q.text("search", 120),
		IncludeDeleted: q.flag("includeDeleted"),
	}
	if strings.TrimSpace(values.Get("isPublished")) != "" {
		published := q.flag("isPublished")
		out.IsPublished = &published
	}
	return out, q.err()
}

// ContactQuery holds the owner GET /api/contact filters.
type ContactQuery struct {
	Status core.ContactStatus
	Search string
}

// ParseContactQuery reads the owner GET /api/contact filters.
func ParseContactQuery(values url.Values) (ContactQuery, error) {
	q := newQueryReader(values)
	out := ContactQuery{
		Status: core.ContactStatus(q.text("status", 20)),
		Search: q.text("search", 120),
	}
	if out.Status != "" && !out.Status.Valid() {
		q.fields.Add("status", "must be one of unread, read, replied, archived")
	}
	return out, q.err()
}

// SettingsQuery holds the GET /api/settings filters.
type SettingsQuery struct {
	Key    string
	Search string
}

// ParseSettingsQuery reads the GET /api/settings filters.
func ParseSettingsQuery(values url.Values) (SettingsQuery, error) {
	q := newQueryReader(values)
	out := SettingsQuery{
		Key:    q.text("key", 120),
		Search: q.text("search", 120),
	}
	return out, q.err()
}

// ParseIntParam reads an optional integer parameter within [minValue, maxValue].
func ParseIntParam(values url.Values, name string, fallback, minValue, maxValue int) (int, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minValue || n > maxValue {
		fields := errwrap.FieldErrors{}
		fields.Add(name, "must be an integer between "+strconv.Itoa(minValue)+" and "+strconv.Itoa(maxValue))
		return 0, errwrap.NewValidationError(invalidQuery, fields)
	}
	return n, nil
}
