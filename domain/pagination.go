package domain

import "auction-market/pkg/pagination"

const DefaultPerPage = pagination.DefaultPageSize

// Pagination is what repositories report back from FindPage. Page is already
// clamped into [1, max(TotalPages, 1)].
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
	TotalItems int64 `json:"total_items"`
}

func NewPagination(page, perPage int, totalItems int64) *Pagination {
	state := pagination.NewState(page, perPage, totalItems)
	return &Pagination{
		Page:       state.CurrentPage,
		PerPage:    state.ItemsPerPage,
		TotalPages: state.TotalPages(),
		TotalItems: state.TotalItems,
	}
}

func (p *Pagination) State() pagination.State {
	if p == nil {
		return pagination.State{CurrentPage: 1, ItemsPerPage: 1}
	}
	return pagination.State{
		CurrentPage:  p.Page,
		ItemsPerPage: p.PerPage,
		TotalItems:   p.TotalItems,
	}
}

// PageQuery is embedded by list requests bound from the query string.
type PageQuery struct {
	Page    int `json:"page" form:"page" binding:"omitempty,min=1"`
	PerPage int `json:"per_page" form:"per_page" binding:"omitempty,min=1,max=100"`
}

// PageResult is the body of every paged list endpoint.
type PageResult[T any] struct {
	Items      []T              `json:"items"`
	Pagination *pagination.View `json:"pagination"`
}

func NewPageResult[T any](items []T, p *Pagination, paginator *pagination.Paginator) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:      items,
		Pagination: paginator.Build(p.State()),
	}
}
