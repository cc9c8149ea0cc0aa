package pagination

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(entries []Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

func TestAnchoredPolicy_Entries(t *testing.T) {
	calc := NewCalculator(DefaultAnchoredPolicy())

	tests := []struct {
		name       string
		current    int
		totalPages int
		want       string
	}{
		{name: "middle of ten", current: 6, totalPages: 10, want: "1,…,5,6,7,…,10"},
		{name: "first of ten", current: 1, totalPages: 10, want: "1,2,3,4,…,10"},
		{name: "third of ten widens start", current: 3, totalPages: 10, want: "1,2,3,4,…,10"},
		{name: "fourth of ten", current: 4, totalPages: 10, want: "1,…,3,4,5,…,10"},
		{name: "last of ten", current: 10, totalPages: 10, want: "1,…,7,8,9,10"},
		{name: "near end of ten", current: 8, totalPages: 10, want: "1,…,7,8,9,10"},
		{name: "two pages", current: 1, totalPages: 2, want: "1,2"},
		{name: "three pages", current: 2, totalPages: 3, want: "1,2,3"},
		{name: "five pages from the middle", current: 3, totalPages: 5, want: "1,2,3,4,5"},
		{name: "six pages from the start", current: 1, totalPages: 6, want: "1,2,3,4,…,6"},
		{name: "current above range is clamped", current: 42, totalPages: 10, want: "1,…,7,8,9,10"},
		{name: "current below range is clamped", current: -3, totalPages: 10, want: "1,2,3,4,…,10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(calc.Entries(tt.current, tt.totalPages)))
		})
	}
}

func TestSlidingPolicy_Entries(t *testing.T) {
	calc := NewCalculator(DefaultSlidingPolicy())

	tests := []struct {
		name       string
		current    int
		totalPages int
		want       string
	}{
		{name: "three pages", current: 1, totalPages: 3, want: "1,2,3"},
		{name: "exactly five pages", current: 5, totalPages: 5, want: "1,2,3,4,5"},
		{name: "first of ten", current: 1, totalPages: 10, want: "1,2,3,4,5,…,10"},
		{name: "middle of ten", current: 6, totalPages: 10, want: "1,…,4,5,6,7,8,…,10"},
		{name: "window abuts first page", current: 4, totalPages: 10, want: "1,2,3,4,5,6,…,10"},
		{name: "last of ten", current: 10, totalPages: 10, want: "1,…,6,7,8,9,10"},
		{name: "window abuts last page", current: 7, totalPages: 10, want: "1,…,5,6,7,8,9,10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(calc.Entries(tt.current, tt.totalPages)))
		})
	}
}

func TestCalculator_NoEntriesForSinglePage(t *testing.T) {
	for _, policy := range []WindowPolicy{DefaultAnchoredPolicy(), DefaultSlidingPolicy()} {
		calc := NewCalculator(policy)
		assert.Empty(t, calc.Entries(1, 0), policy.Name())
		assert.Empty(t, calc.Entries(1, 1), policy.Name())
		assert.Empty(t, calc.Entries(3, -1), policy.Name())
	}
}

func TestCalculator_Properties(t *testing.T) {
	policies := []WindowPolicy{
		DefaultAnchoredPolicy(),
		DefaultSlidingPolicy(),
		SlidingPolicy{Width: 1},
		SlidingPolicy{Width: 7},
		AnchoredPolicy{Siblings: 2, EdgeSpan: 6},
	}

	for _, policy := range policies {
		calc := NewCalculator(policy)
		for totalPages := 2; totalPages <= 40; totalPages++ {
			for current := 1; current <= totalPages; current++ {
				entries := calc.Entries(current, totalPages)
				require.NotEmpty(t, entries)

				first, last := entries[0], entries[len(entries)-1]
				assert.Equal(t, PageEntry(1), first, "%s tp=%d cur=%d", policy.Name(), totalPages, current)
				assert.Equal(t, PageEntry(totalPages), last, "%s tp=%d cur=%d", policy.Name(), totalPages, current)

				pages := calc.Pages(current, totalPages)
				assert.Contains(t, pages, current, "%s tp=%d cur=%d", policy.Name(), totalPages, current)

				prev := 0
				for i, e := range entries {
					if e.IsEllipsis() {
						require.Greater(t, i, 0)
						require.Less(t, i, len(entries)-1)
						before, after := entries[i-1], entries[i+1]
						assert.False(t, before.IsEllipsis())
						assert.False(t, after.IsEllipsis())
						assert.Greater(t, after.Page-before.Page, 1, "%s tp=%d cur=%d", policy.Name(), totalPages, current)
						continue
					}
					assert.Greater(t, e.Page, prev, "%s tp=%d cur=%d", policy.Name(), totalPages, current)
					if i > 0 && !entries[i-1].IsEllipsis() {
						assert.Equal(t, 1, e.Page-entries[i-1].Page, "%s tp=%d cur=%d", policy.Name(), totalPages, current)
					}
					prev = e.Page
				}
			}
		}
	}
}

func TestPolicyFromName(t *testing.T) {
	policy, err := PolicyFromName(PolicySliding, 7)
	require.NoError(t, err)
	assert.Equal(t, SlidingPolicy{Width: 7}, policy)

	policy, err = PolicyFromName(PolicySliding, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSlidingPolicy(), policy)

	policy, err = PolicyFromName("", 0)
	require.NoError(t, err)
	assert.Equal(t, PolicyAnchored, policy.Name())

	_, err = PolicyFromName("zigzag", 0)
	assert.Error(t, err)
}
