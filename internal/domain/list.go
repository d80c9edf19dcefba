// Package domain holds the types every business package shares: paging and lifecycle hooks.
package domain

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ListFilter is the paging part of every list query. Search is matched case-insensitively.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Normalize applies the default page size and clamps out-of-range values.
func (f *ListFilter) Normalize() {
	f.Limit = min(f.Limit, MaxPageSize)
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	f.Offset = max(f.Offset, 0)
}

// ListResult is one page of T plus the total row count matching the filter.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
