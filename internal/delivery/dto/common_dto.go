package dto

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items []T
	Page  int
	Limit int
	Total int64
}

// NewPage builds a page, never returning a nil item slice.
func NewPage[T any](items []T, page, limit int, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Page: page, Limit: limit, Total: total}
}

type CountResponse struct {
	Count int64 `json:"count"`
}
