package shared

import (
	"net/http"
	"strconv"
)

// PageRequest carries list pagination parameters.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset returns the SQL offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageRequest reads page/limit query parameters with defaults.
func ParsePageRequest(r *http.Request) PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return PageRequest{Page: page, Limit: limit}
}
