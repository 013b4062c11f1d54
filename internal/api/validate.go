package api

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	errwrap "github.com/folio/folio/internal/errors"
)

// SlugPattern is the accepted shape of project and post slugs.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	maxURLLength   = 2048
	invalidPayload = "Invalid request payload."
)

// checker accumulates field errors for one payload.
type checker struct {
	fields errwrap.FieldErrors
}

func newChecker() *checker {
	return &checker{fields: errwrap.FieldErrors{}}
}

func (c *checker) fail(field, format string, args ...any) {
	c.fields.Add(field, fmt.Sprintf(format, args...))
}

func (c *checker) length(field, value string, minLen, maxLen int) {
	n := utf8.RuneCountInString(value)
	switch {
	case minLen > 0 && n < minLen:
		c.fail(field, "must be at least %d characters", minLen)
	case n > maxLen:
		c.fail(field, "must be at most %d characters", maxLen)
	}
}

func (c *checker) id(field, value string) {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		c.fail(field, "must be a valid id")
	}
}

func (c *checker) slug(field, value string) {
	if !SlugPattern.MatchString(value) {
		c.fail(field, "invalid slug format")
	}
}

func (c *checker) url(field string, value *string) {
	if value == nil {
		return
	}
	if utf8.RuneCountInString(*value) > maxURLLength {
		c.fail(field, "must be at most %d characters", maxURLLength)
		return
	}
	if !ValidURL(*value) {
		c.fail(field, "must be a valid http(s) URL")
	}
}

func (c *checker) email(field, value string) {
	if utf8.RuneCountInString(value) > 320 {
		c.fail(field, "must be at most 320 characters")
		return
	}
	if !ValidEmail(value) {
		c.fail(field, "must be a valid email address")
	}
}

func (c *checker) list(field string, values []string, maxItems, minLen, maxLen int) {
	if len(values) > maxItems {
		c.fail(field, "must contain at most %d items", maxItems)
		return
	}
	for _, value := range values {
		n := utf8.RuneCountInString(value)
		if n < minLen || n > maxLen {
			c.fail(field, "items must be %d to %d characters", minLen, maxLen)
			return
		}
	}
}

func (c *checker) intRange(field string, value, minValue, maxValue int) {
	if value < minValue || value > maxValue {
		c.fail(field, "must be between %d and %d", minValue, maxValue)
	}
}

func (c *checker) notNull(field string, null bool) {
	if null {
		c.fail(field, "must not be null")
	}
}

func (c *checker) err() error {
	if c.fields.Empty() {
		return nil
	}
	return errwrap.NewValidationError(invalidPayload, c.fields)
}

// ValidURL reports whether raw is an absolute http or https URL.
func ValidURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// ValidEmail reports whether raw is a bare address such as a@b.co.
func ValidEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return false
	}
	at := strings.LastIndex(raw, "@")
	return at > 0 && strings.Contains(raw[at+1:], ".")
}

// normalizeList returns values, or an empty list for nil.
func normalizeList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
