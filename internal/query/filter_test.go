package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name     string
	Category string
}

func fields(r record) []string { return []string{r.Name, r.Category} }

func sampleRecords(n int) []record {
	out := make([]record, n)
	for i := range out {
		out[i] = record{Name: fmt.Sprintf("item-%02d", i+1), Category: "general"}
	}
	return out
}

func TestApplySearch(t *testing.T) {
	items := []record{
		{Name: "Espresso Beans", Category: "Coffee"},
		{Name: "Filter Paper", Category: "Coffee"},
		{Name: "Green Tea", Category: "Tea"},
	}

	tests := []struct {
		name string
		term string
		want int
	}{
		{name: "empty term matches everything", term: "", want: 3},
		{name: "whitespace term matches everything", term: "   ", want: 3},
		{name: "case-insensitive name match", term: "ESPRESSO", want: 1},
		{name: "category match", term: "coffee", want: 2},
		{name: "substring match", term: "ea", want: 3},
		{name: "no match", term: "juice", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Apply(items, tt.term, nil, fields, 1, 10)
			assert.Len(t, result.Items, tt.want)
		})
	}
}

func TestApplyRestriction(t *testing.T) {
	items := []record{
		{Name: "Espresso Beans", Category: "Coffee"},
		{Name: "Filter Paper", Category: "Coffee"},
		{Name: "Green Tea", Category: "Tea"},
	}

	onlyCoffee := func(r record) bool { return r.Category == "Coffee" }

	result := Apply(items, "", onlyCoffee, fields, 1, 10)
	assert.Len(t, result.Items, 2)

	// Restriction applies before the search term
	result = Apply(items, "green", onlyCoffee, fields, 1, 10)
	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.TotalPages)
}

func TestApplyPagination(t *testing.T) {
	items := sampleRecords(25)

	tests := []struct {
		name       string
		page       int
		pageSize   int
		wantPage   int
		wantTotal  int
		wantOnPage int
		wantFirst  string
	}{
		{name: "first page", page: 1, pageSize: 10, wantPage: 1, wantTotal: 3, wantOnPage: 10, wantFirst: "item-01"},
		{name: "middle page", page: 2, pageSize: 10, wantPage: 2, wantTotal: 3, wantOnPage: 10, wantFirst: "item-11"},
		{name: "short last page", page: 3, pageSize: 10, wantPage: 3, wantTotal: 3, wantOnPage: 5, wantFirst: "item-21"},
		{name: "page past the end clamps to last", page: 99, pageSize: 10, wantPage: 3, wantTotal: 3, wantOnPage: 5, wantFirst: "item-21"},
		{name: "page below one clamps to first", page: 0, pageSize: 10, wantPage: 1, wantTotal: 3, wantOnPage: 10, wantFirst: "item-01"},
		{name: "exact division", page: 5, pageSize: 5, wantPage: 5, wantTotal: 5, wantOnPage: 5, wantFirst: "item-21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Apply(items, "", nil, fields, tt.page, tt.pageSize)
			assert.Equal(t, tt.wantPage, result.Page)
			assert.Equal(t, tt.wantTotal, result.TotalPages)
			require.Len(t, result.Items, tt.wantOnPage)
			assert.Equal(t, tt.wantFirst, result.Items[0].Name)
		})
	}
}

func TestApplyEmptyCollection(t *testing.T) {
	result := Apply(nil, "anything", nil, fields, 3, 10)

	assert.Empty(t, result.Items)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.TotalPages, "an empty result still reports one page")
	assert.Equal(t, []int{1}, result.PageNumbers)
}

func TestApplyPageNumbers(t *testing.T) {
	result := Apply(sampleRecords(25), "", nil, fields, 1, 10)
	assert.Equal(t, []int{1, 2, 3}, result.PageNumbers)
}

func TestApplyNonPositivePageSize(t *testing.T) {
	result := Apply(sampleRecords(7), "", nil, fields, 1, 0)

	assert.Len(t, result.Items, 7, "non-positive page size means a single page with everything")
	assert.Equal(t, 1, result.TotalPages)
}
