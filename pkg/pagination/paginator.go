package pagination

import (
	"fmt"
	"slices"
)

var DefaultPageSizes = []int{12, 24, 48}

const DefaultPageSize = 12

type Config struct {
	Policy          string
	Width           int
	PageSizes       []int
	DefaultPageSize int
}

// View is the pagination block returned next to every paged list.
type View struct {
	Page       int     `json:"page"`
	PerPage    int     `json:"per_page"`
	TotalPages int     `json:"total_pages"`
	TotalItems int64   `json:"total_items"`
	StartItem  int64   `json:"start_item"`
	EndItem    int64   `json:"end_item"`
	Label      string  `json:"label"`
	HasPrev    bool    `json:"has_prev"`
	HasNext    bool    `json:"has_next"`
	PageSizes  []int   `json:"page_sizes"`
	Entries    []Entry `json:"entries"`
}

// Paginator binds a window policy to the set of page sizes a list accepts.
type Paginator struct {
	calculator  *Calculator
	pageSizes   []int
	defaultSize int
}

func NewPaginator(cfg Config) (*Paginator, error) {
	policy, err := PolicyFromName(cfg.Policy, cfg.Width)
	if err != nil {
		return nil, err
	}

	sizes := slices.Clone(cfg.PageSizes)
	if len(sizes) == 0 {
		sizes = slices.Clone(DefaultPageSizes)
	}
	slices.Sort(sizes)
	sizes = slices.Compact(sizes)
	if sizes[0] <= 0 {
		return nil, fmt.Errorf("page sizes must be positive, got %v", cfg.PageSizes)
	}

	defaultSize := cfg.DefaultPageSize
	if defaultSize == 0 {
		defaultSize = sizes[0]
	}
	if !slices.Contains(sizes, defaultSize) {
		return nil, fmt.Errorf("default page size %d is not one of %v", defaultSize, sizes)
	}

	return &Paginator{
		calculator:  NewCalculator(policy),
		pageSizes:   sizes,
		defaultSize: defaultSize,
	}, nil
}

func MustNewPaginator(cfg Config) *Paginator {
	p, err := NewPaginator(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Paginator) Calculator() *Calculator {
	return p.calculator
}

func (p *Paginator) PageSizes() []int {
	return slices.Clone(p.pageSizes)
}

func (p *Paginator) DefaultPageSize() int {
	return p.defaultSize
}

func (p *Paginator) IsAllowedPageSize(size int) bool {
	return slices.Contains(p.pageSizes, size)
}

// Normalize maps raw request values to a valid page and an allowed page size.
// The upper page bound is applied later, once the total is known.
func (p *Paginator) Normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if !p.IsAllowedPageSize(perPage) {
		perPage = p.defaultSize
	}
	return page, perPage
}

func (p *Paginator) Build(state State) *View {
	state = state.Clamp()
	startItem, endItem := state.Range()
	totalPages := state.TotalPages()

	entries := p.calculator.Entries(state.CurrentPage, totalPages)
	if entries == nil {
		entries = []Entry{}
	}

	return &View{
		Page:       state.CurrentPage,
		PerPage:    state.ItemsPerPage,
		TotalPages: totalPages,
		TotalItems: state.TotalItems,
		StartItem:  startItem,
		EndItem:    endItem,
		Label:      state.Label(),
		HasPrev:    state.HasPrev(),
		HasNext:    state.HasNext(),
		PageSizes:  p.PageSizes(),
		Entries:    entries,
	}
}
