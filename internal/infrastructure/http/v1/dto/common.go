// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"invoicehub/internal/domain"
)

// --- Pagination ---

// ListQuery contains paging and search parameters of list endpoints.
type ListQuery struct {
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query into a normalized domain filter.
func (q ListQuery) ToFilter() domain.ListFilter {
	f := domain.ListFilter{Search: q.Search, Limit: q.Limit, Offset: q.Offset}
	f.Normalize()
	return f
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// MapList converts a domain page with fn.
func MapList[E, T any](page domain.ListResult[E], fn func(E) T) ListResponse[T] {
	items := make([]T, 0, len(page.Items))
	for _, e := range page.Items {
		items = append(items, fn(e))
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
