package pagination

import "math"

const (
	// DefaultPageSize is used when a request does not specify a size.
	DefaultPageSize = 20
	// MaxPageSize caps how many rows a single page may hold.
	MaxPageSize = 100
)

// Params is a 1-indexed page request.
type Params struct {
	Page     int
	PageSize int
}

// Normalize clamps page to at least 1 and size into [1, maxSize], using defaultSize when unset.
func (p Params) Normalize(defaultSize, maxSize int) Params {
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > maxSize {
		p.PageSize = maxSize
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// Meta describes a page of a result set.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta computes paging metadata; an out-of-range page keeps the real totals.
func NewMeta(p Params, total int64) Meta {
	pages := 0
	if p.PageSize > 0 && total > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	return Meta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalCount: total,
		TotalPages: pages,
	}
}
