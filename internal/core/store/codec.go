package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Page selects a window of a listing. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

func (p Page) limit() int {
	if p.Size < 1 {
		return 12
	}
	return p.Size
}

func (p Page) offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.limit()
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}

func nullUnix(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value.UTC().Unix(), Valid: true}
}

func timePtr(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	out := time.Unix(value.Int64, 0).UTC()
	return &out
}

func unixTime(value int64) time.Time {
	return time.Unix(value, 0).UTC()
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeStrings(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	if out == nil {
		out = []string{}
	}
	return out
}

// likeTerm strips LIKE wildcards from a search term and wraps it for a
// case-insensitive contains match. An empty result disables the filter.
func likeTerm(search string) string {
	term := strings.NewReplacer("%", "", "_", "").Replace(search)
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return ""
	}
	return "%" + term + "%"
}

// jsonElementTerm matches a string element inside a JSON array column.
func jsonElementTerm(value string) string {
	encoded, err := json.Marshal(strings.TrimSpace(value))
	if err != nil {
		return ""
	}
	return "%" + string(encoded) + "%"
}

// whereBuilder accumulates AND-ed predicates and their arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *whereBuilder) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}
