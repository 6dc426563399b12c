package dto

import "github.com/spec-kit/helpdesk-service/internal/repository"

// Envelope wraps function-style responses.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a successful envelope.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Problem is the RFC 7807 error body.
type Problem struct {
	Type   string         `json:"type"`
	Title  string         `json:"title"`
	Detail string         `json:"detail"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// PageResponse is the list shape shared by every paginated endpoint.
type PageResponse[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"hasMore"`
}

// NewPageResponse converts a repository page, mapping each row with fn.
func NewPageResponse[T, U any](p *repository.Page[T], fn func(*T) U) PageResponse[U] {
	items := make([]U, 0, len(p.Items))
	for i := range p.Items {
		items = append(items, fn(&p.Items[i]))
	}
	return PageResponse[U]{Items: items, Total: p.Total, Page: p.Page, Limit: p.Limit, HasMore: p.HasMore}
}

// OKResponse acknowledges a mutation.
type OKResponse struct {
	OK     bool   `json:"ok"`
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}
