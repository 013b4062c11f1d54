package output

import (
	"encoding/json"

	"github.com/folio/folio/internal/core/store"
	"github.com/folio/folio/internal/github"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatImport renders the import result exactly as GET /api/github-projects
// returns it.
func (f *JSONFormatter) FormatImport(result github.ImportResult) (string, error) {
	return f.marshal(result)
}

func (f *JSONFormatter) FormatSync(result *github.SyncResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

func (f *JSONFormatter) FormatRateLimits(entries []store.RateLimitEntry) (string, error) {
	rows := make([]rateLimitRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, newRateLimitRow(entry))
	}
	return f.marshal(rows)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
