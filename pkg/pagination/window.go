package pagination

import "fmt"

// EntryKind distinguishes a page button from an elision marker.
type EntryKind string

const (
	EntryPage     EntryKind = "page"
	EntryEllipsis EntryKind = "ellipsis"
)

// Entry is a single render instruction of the page navigation.
type Entry struct {
	Kind EntryKind `json:"type"`
	Page int       `json:"page,omitempty"`
}

func PageEntry(page int) Entry {
	return Entry{Kind: EntryPage, Page: page}
}

func EllipsisEntry() Entry {
	return Entry{Kind: EntryEllipsis}
}

func (e Entry) IsEllipsis() bool {
	return e.Kind == EntryEllipsis
}

func (e Entry) String() string {
	if e.IsEllipsis() {
		return "…"
	}
	return fmt.Sprintf("%d", e.Page)
}

// WindowPolicy picks the contiguous run of pages shown around the current page.
// Implementations receive a current page already clamped into [1, totalPages]
// and totalPages > 1. The returned window may be empty (start > end).
type WindowPolicy interface {
	Name() string
	Window(currentPage, totalPages int) (start, end int)
}

// Calculator turns a policy window into the full navigation sequence.
// Page 1 and the last page are always present, and an ellipsis sits exactly
// where two neighbouring page numbers are more than one apart.
type Calculator struct {
	policy WindowPolicy
}

func NewCalculator(policy WindowPolicy) *Calculator {
	if policy == nil {
		policy = DefaultAnchoredPolicy()
	}
	return &Calculator{policy: policy}
}

func (c *Calculator) Policy() WindowPolicy {
	return c.policy
}

// Entries returns nil when there is nothing to navigate (totalPages <= 1).
func (c *Calculator) Entries(currentPage, totalPages int) []Entry {
	if totalPages <= 1 {
		return nil
	}
	currentPage = clamp(currentPage, 1, totalPages)

	start, end := c.policy.Window(currentPage, totalPages)
	start = max(start, 1)
	end = min(end, totalPages)

	pages := make([]int, 0, max(end-start, 0)+3)
	pages = append(pages, 1)
	for p := start; p <= end; p++ {
		if p > pages[len(pages)-1] {
			pages = append(pages, p)
		}
	}
	if totalPages > pages[len(pages)-1] {
		pages = append(pages, totalPages)
	}

	entries := make([]Entry, 0, len(pages)+2)
	for i, p := range pages {
		if i > 0 && p-pages[i-1] > 1 {
			entries = append(entries, EllipsisEntry())
		}
		entries = append(entries, PageEntry(p))
	}
	return entries
}

// Pages returns only the page numbers of Entries.
func (c *Calculator) Pages(currentPage, totalPages int) []int {
	entries := c.Entries(currentPage, totalPages)
	pages := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsEllipsis() {
			pages = append(pages, e.Page)
		}
	}
	return pages
}

/****************************
*          Policies         *
****************************/

const (
	PolicySliding  = "sliding"
	PolicyAnchored = "anchored"
)

// SlidingPolicy shows a fixed number of consecutive pages centred on the
// current page and shifted to stay inside [1, totalPages].
type SlidingPolicy struct {
	Width int
}

func DefaultSlidingPolicy() SlidingPolicy {
	return SlidingPolicy{Width: 5}
}

func (p SlidingPolicy) Name() string {
	return PolicySliding
}

func (p SlidingPolicy) Window(currentPage, totalPages int) (int, int) {
	width := min(max(p.Width, 1), totalPages)
	start := currentPage - width/2
	start = clamp(start, 1, totalPages-width+1)
	return start, start + width - 1
}

// AnchoredPolicy keeps Siblings pages on each side of the current page between
// the fixed first and last pages. Near either end the window grows to EdgeSpan
// pages so the navigation does not shrink.
type AnchoredPolicy struct {
	Siblings int
	EdgeSpan int
}

func DefaultAnchoredPolicy() AnchoredPolicy {
	return AnchoredPolicy{Siblings: 1, EdgeSpan: 4}
}

func (p AnchoredPolicy) Name() string {
	return PolicyAnchored
}

func (p AnchoredPolicy) Window(currentPage, totalPages int) (int, int) {
	siblings := max(p.Siblings, 0)
	span := max(p.EdgeSpan, 2)

	start := max(2, currentPage-siblings)
	end := min(totalPages-1, currentPage+siblings)

	if currentPage <= span-1 {
		end = min(totalPages-1, span)
	}
	if currentPage >= totalPages-(span-2) {
		start = max(2, totalPages-(span-1))
	}
	return start, end
}

// PolicyFromName resolves a configured policy name. Width applies to the
// sliding policy only; zero keeps the default.
func PolicyFromName(name string, width int) (WindowPolicy, error) {
	switch name {
	case PolicySliding:
		policy := DefaultSlidingPolicy()
		if width > 0 {
			policy.Width = width
		}
		return policy, nil
	case PolicyAnchored, "":
		return DefaultAnchoredPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown pagination window policy %q", name)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
