package pagination

import (
	"net/http"
	"strconv"
)

// Params holds pagination parameters extracted from query strings. The field
// names mirror the upstream catalog API (`page` / `page_size`).
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// DefaultParams returns the defaults used by product grids.
func DefaultParams() Params {
	return Params{
		Page:     1,
		PageSize: 12,
	}
}

// FromRequest extracts pagination parameters from an HTTP request, clamping
// page_size to 50 (the upstream hard limit for list endpoints).
func FromRequest(r *http.Request) Params {
	p := DefaultParams()

	if page := r.URL.Query().Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if size := r.URL.Query().Get("page_size"); size != "" {
		if v, err := strconv.Atoi(size); err == nil && v > 0 && v <= 50 {
			p.PageSize = v
		}
	}

	return p
}
