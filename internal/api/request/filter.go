package request

import (
	"net/http"
	"strconv"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ListParams holds pagination, search and sort parameters.
//
// Cursor is the id of the last row of the previous page. Listings resume
// after that row in the requested sort order, so a cursor stays valid for
// any Sort as long as Sort and Order are repeated unchanged.
type ListParams struct {
	Limit  int
	Cursor string
	Search string
	Sort   string
	Order  string // "asc" or "desc"
}

// ParseListParams extracts list parameters from the query string.
// defaultSort specifies which field to sort by when none is provided.
func ParseListParams(r *http.Request, defaultSort string) ListParams {
	q := r.URL.Query()
	order := stringOr(q.Get("order"), "asc")
	if order != "asc" && order != "desc" {
		order = "asc"
	}
	return ListParams{
		Limit:  parseLimit(q.Get("limit")),
		Cursor: q.Get("cursor"),
		Search: q.Get("search"),
		Sort:   stringOr(q.Get("sort"), defaultSort),
		Order:  order,
	}
}

// parseLimit falls back to DefaultLimit for anything that is not a positive
// integer and clamps to MaxLimit.
func parseLimit(s string) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

func stringOr(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
