// Package query provides the pure filter/pagination step between a collection
// snapshot and the visible page. It performs no I/O and holds no state.
package query

import "strings"

// Result is the visible slice plus the navigation metadata derived from it
type Result[T any] struct {
	Items       []T
	Page        int
	TotalPages  int
	PageNumbers []int
}

// Apply restricts, searches and paginates a collection snapshot.
//
// restrict is the exact-match filter (category, status) applied before the
// search; nil means no restriction. fields yields the searchable field values
// for a record; the search term matches case-insensitively as a substring of
// any of them. An out-of-range page is clamped to the last page rather than
// producing an empty slice.
func Apply[T any](items []T, term string, restrict func(T) bool, fields func(T) []string, page, pageSize int) Result[T] {
	filtered := make([]T, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(term))

	for _, item := range items {
		if restrict != nil && !restrict(item) {
			continue
		}
		if needle != "" && !matches(fields(item), needle) {
			continue
		}
		filtered = append(filtered, item)
	}

	if pageSize <= 0 {
		pageSize = len(filtered)
		if pageSize == 0 {
			pageSize = 1
		}
	}

	totalPages := (len(filtered) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	pageNumbers := make([]int, totalPages)
	for i := range pageNumbers {
		pageNumbers[i] = i + 1
	}

	return Result[T]{
		Items:       filtered[start:end],
		Page:        page,
		TotalPages:  totalPages,
		PageNumbers: pageNumbers,
	}
}

func matches(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
