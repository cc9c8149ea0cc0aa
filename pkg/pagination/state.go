package pagination

import "fmt"

// State is the view-state snapshot of a paginated list.
type State struct {
	CurrentPage  int   `json:"page"`
	ItemsPerPage int   `json:"per_page"`
	TotalItems   int64 `json:"total_items"`
}

func NewState(currentPage, itemsPerPage int, totalItems int64) State {
	return State{
		CurrentPage:  currentPage,
		ItemsPerPage: itemsPerPage,
		TotalItems:   totalItems,
	}.Clamp()
}

// TotalPages is ceil(TotalItems / ItemsPerPage), never negative.
func (s State) TotalPages() int {
	if s.ItemsPerPage <= 0 || s.TotalItems <= 0 {
		return 0
	}
	return int((s.TotalItems + int64(s.ItemsPerPage) - 1) / int64(s.ItemsPerPage))
}

// Clamp brings CurrentPage back into [1, max(TotalPages, 1)].
func (s State) Clamp() State {
	if s.TotalItems < 0 {
		s.TotalItems = 0
	}
	if s.ItemsPerPage < 1 {
		s.ItemsPerPage = 1
	}
	s.CurrentPage = clamp(s.CurrentPage, 1, max(s.TotalPages(), 1))
	return s
}

func (s State) Offset() int {
	c := s.Clamp()
	return (c.CurrentPage - 1) * c.ItemsPerPage
}

func (s State) HasPrev() bool {
	return s.Clamp().CurrentPage > 1
}

func (s State) HasNext() bool {
	c := s.Clamp()
	return c.CurrentPage < c.TotalPages()
}

// Range returns the inclusive 1-indexed items shown on the current page.
// Both bounds are 0 for an empty list.
func (s State) Range() (startItem, endItem int64) {
	c := s.Clamp()
	if c.TotalItems == 0 {
		return 0, 0
	}
	per := int64(c.ItemsPerPage)
	startItem = int64(c.CurrentPage-1)*per + 1
	endItem = min(int64(c.CurrentPage)*per, c.TotalItems)
	return startItem, endItem
}

// Label renders Range as "X–Y of Z".
func (s State) Label() string {
	startItem, endItem := s.Range()
	if endItem == 0 {
		return "0 of 0"
	}
	return fmt.Sprintf("%d–%d of %d", startItem, endItem, s.Clamp().TotalItems)
}
