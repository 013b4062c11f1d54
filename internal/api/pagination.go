package api

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/folio/folio/internal/core/store"
	errwrap "github.com/folio/folio/internal/errors"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// Pagination is a validated page request.
type Pagination struct {
	Page     int
	PageSize int
}

// PaginationMeta is returned under meta.pagination on list responses.
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// ParsePagination reads page and pageSize from query. Absent values take
// the defaults; malformed or out of range values are validation errors.
func ParsePagination(query url.Values) (Pagination, error) {
	fields := errwrap.FieldErrors{}
	p := Pagination{Page: 1, PageSize: DefaultPageSize}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fields.Add("page", "must be an integer of at least 1")
		} else {
			p.Page = page
		}
	}
	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > MaxPageSize {
			fields.Add("pageSize", "must be an integer between 1 and 50")
		} else {
			p.PageSize = size
		}
	}

	if !fields.Empty() {
		return Pagination{}, errwrap.NewValidationError("Invalid pagination parameters.", fields)
	}
	return p, nil
}

// StorePage converts p for store list calls.
func (p Pagination) StorePage() store.Page {
	return store.Page{Number: p.Page, Size: p.PageSize}
}

// Meta builds the pagination meta for total rows.
func (p Pagination) Meta(total int) PaginationMeta {
	if total < 0 {
		total = 0
	}
	size := p.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	return PaginationMeta{
		Page:       p.Page,
		PageSize:   size,
		Total:      total,
		TotalPages: max(1, int(math.Ceil(float64(total)/float64(size)))),
	}
}

// ListMeta wraps Meta for the response envelope.
func (p Pagination) ListMeta(total int) map[string]any {
	return map[string]any{"pagination": p.Meta(total)}
}
