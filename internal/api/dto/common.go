// Package dto provides response types for the shop API.
// These types are used by huma to generate OpenAPI documentation.
package dto

// ListResponse is a list of items with the total count across all pages.
type ListResponse[T any] struct {
	Items   []T  `json:"items" doc:"List of items"`
	Total   int  `json:"total" doc:"Total count across all pages"`
	HasMore bool `json:"has_more" doc:"Whether more pages exist"`
}

// NewListResponse builds a page of items that starts at offset.
func NewListResponse[T any](items []T, total, offset int) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:   items,
		Total:   total,
		HasMore: offset+len(items) < total,
	}
}

// PaginationParams defines common pagination query parameters.
type PaginationParams struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Items per page"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Items to skip"`
}

// DateParam is a calendar day path parameter.
type DateParam struct {
	Date string `path:"date" doc:"Calendar date (YYYY-MM-DD) or 'today'"`
}
