// Package query implements the listing engine shared by every record
// collection: free-text filtering, comparator-table sorting, and clamped
// 1-based pagination. All functions are pure; inputs are never mutated.
package query

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// DefaultPageSize is applied when Options.PageSize is zero or negative.
const DefaultPageSize = 10

// Options describes one listing request.
type Options struct {
	// Search filters records to those with at least one searchable field
	// containing the text, case-insensitively. Blank or whitespace-only
	// text applies no filter.
	Search string
	// SortKey selects a comparator from the record's field set. An empty or
	// unknown key leaves the collection in insertion order, which is
	// newest-first because creates prepend.
	SortKey string
	// Desc reverses the comparator's ascending order.
	Desc bool
	// Page is 1-based and clamped into the valid range rather than erroring.
	Page int
	// PageSize defaults to DefaultPageSize when not positive.
	PageSize int
}

// Page is one slice of a filtered, sorted collection together with the
// totals needed to render pagination controls.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Comparator orders two records by one field, ascending.
type Comparator[T any] func(a, b T) int

// FieldSet describes how a record type exposes its searchable text and its
// sortable fields to the engine.
type FieldSet[T any] struct {
	// SearchText returns the field values matched by Options.Search.
	SearchText func(T) []string
	// Comparators maps sort keys to typed comparison functions.
	Comparators map[string]Comparator[T]
}

// Run filters, sorts, and paginates items according to opts.
func Run[T any](items []T, fields FieldSet[T], opts Options) Page[T] {
	filtered := Filter(items, fields, opts.Search)
	sorted := Sort(filtered, fields, opts.SortKey, opts.Desc)
	return Paginate(sorted, opts.Page, opts.PageSize)
}

// Filter returns the records with at least one searchable field containing
// search, case-insensitively. Blank search text returns a copy of the full
// collection; an empty query lists everything rather than nothing.
func Filter[T any](items []T, fields FieldSet[T], search string) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" || fields.SearchText == nil {
		return slices.Clone(items)
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, value := range fields.SearchText(item) {
			if strings.Contains(strings.ToLower(value), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Sort orders items by the comparator registered for key. The sort is stable
// so records with equal keys keep their insertion order. Empty and unknown
// keys are a no-op. The input slice is not modified.
func Sort[T any](items []T, fields FieldSet[T], key string, desc bool) []T {
	out := slices.Clone(items)
	if key == "" {
		return out
	}
	cmp, ok := fields.Comparators[key]
	if !ok {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := cmp(a, b)
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Paginate slices items into the requested 1-based page.
//
// TotalPages is max(ceil(total/pageSize), 1): an empty collection reports one
// empty page rather than zero pages, so a clamped page index is always valid.
// Out-of-range page requests are silently corrected to the nearest valid page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      slices.Clone(items[start:end]),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Fold compares the extracted values case-insensitively.
func Fold[T any](extract func(T) string) Comparator[T] {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(extract(a)), strings.ToLower(extract(b)))
	}
}

// Lexicographic compares the extracted string representations byte-wise.
// This reproduces the stringify-then-compare ordering of serialized fields,
// under which "10" sorts before "9"; use Numeric where numeric-content
// strings must order numerically.
func Lexicographic[T any](extract func(T) string) Comparator[T] {
	return func(a, b T) int {
		return strings.Compare(extract(a), extract(b))
	}
}

// Numeric compares numeric-content strings by value. Values that fail to
// parse order after all numeric values, tied among themselves by byte order.
func Numeric[T any](extract func(T) string) Comparator[T] {
	return func(a, b T) int {
		av, aerr := strconv.Atoi(extract(a))
		bv, berr := strconv.Atoi(extract(b))
		switch {
		case aerr == nil && berr == nil:
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		case aerr == nil:
			return -1
		case berr == nil:
			return 1
		default:
			return strings.Compare(extract(a), extract(b))
		}
	}
}

// ByTime compares extracted timestamps chronologically.
func ByTime[T any](extract func(T) time.Time) Comparator[T] {
	return func(a, b T) int {
		return extract(a).Compare(extract(b))
	}
}

// ByBool orders false before true.
func ByBool[T any](extract func(T) bool) Comparator[T] {
	return func(a, b T) int {
		av, bv := extract(a), extract(b)
		switch {
		case av == bv:
			return 0
		case bv:
			return -1
		}
		return 1
	}
}
