package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
	// MaxPage bounds Page so the offset stays well inside int range.
	MaxPage = 100_000
)

// Params holds page-based pagination extracted from the query string.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams returns page 1 with DefaultPerPage items.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Offset is the SQL OFFSET for the page. Page is clamped to 1..MaxPage and
// PerPage to 0..MaxPerPage, so the result is never negative.
func (p Params) Offset() int {
	page := min(max(p.Page, 1), MaxPage)
	perPage := min(max(p.PerPage, 0), MaxPerPage)
	return (page - 1) * perPage
}

// TotalPages returns how many pages totalCount items span.
func (p Params) TotalPages(totalCount int) int {
	if p.PerPage <= 0 {
		return 0
	}
	return (totalCount + p.PerPage - 1) / p.PerPage
}

// FromRequest reads page and limit (per_page is accepted as an alias).
// Invalid or out-of-range values fall back to defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := DefaultParams()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = min(v, MaxPage)
	}

	limit := q.Get("limit")
	if limit == "" {
		limit = q.Get("per_page")
	}
	if v, err := strconv.Atoi(limit); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}
	return p
}

// Sort is a validated sort column and direction.
type Sort struct {
	Field string
	Desc  bool
}

// SortFromRequest reads sort and order query values. Only fields present in
// allowed are accepted; the map value is the column name to use in SQL.
func SortFromRequest(r *http.Request, allowed map[string]string, fallback Sort) Sort {
	q := r.URL.Query()
	s := fallback

	if col, ok := allowed[q.Get("sort")]; ok {
		s.Field = col
	}
	switch strings.ToLower(q.Get("order")) {
	case "asc":
		s.Desc = false
	case "desc":
		s.Desc = true
	}
	return s
}

// Direction renders the SQL direction keyword.
func (s Sort) Direction() string {
	if s.Desc {
		return "DESC"
	}
	return "ASC"
}
