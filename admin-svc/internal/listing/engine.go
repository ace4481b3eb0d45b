// Package listing derives the rows shown in the dashboard tables: a stable
// sort by one column, an optional free-text filter and pagination.
package listing

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func ParseDirection(s string) Direction {
	if strings.EqualFold(s, string(Desc)) {
		return Desc
	}
	return Asc
}

// Row is a record that can be displayed in a table.
type Row interface {
	// SortValue returns the natural value of a column, or nil when the
	// record has no such column.
	SortValue(key string) any
	// SearchText returns the fields matched by the free-text filter.
	SearchText() []string
}

type Query struct {
	OrderBy string
	Order   Direction
	Filter  string
}

// Apply sorts rows by q.OrderBy. When q.Filter is set the sorted result is
// replaced by a filter over the input in its original order.
func Apply[T Row](rows []T, q Query) []T {
	if q.Filter != "" {
		return Filter(rows, q.Filter)
	}
	return Sort(rows, q.OrderBy, q.Order)
}

// Sort returns a stably sorted copy of rows. Equal and incomparable values
// keep their input order.
func Sort[T Row](rows []T, key string, dir Direction) []T {
	out := slices.Clone(rows)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := Compare(a.SortValue(key), b.SortValue(key))
		if dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// Filter keeps the rows with at least one search field containing query,
// ignoring case.
func Filter[T Row](rows []T, query string) []T {
	needle := strings.ToLower(query)
	out := []T{}
	for _, row := range rows {
		for _, text := range row.SearchText() {
			if strings.Contains(strings.ToLower(text), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Compare orders two column values. Values of different or unsupported
// kinds compare equal.
func Compare(a, b any) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
		return 0
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
		return 0
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
		return 0
	}

	x, ok := number(a)
	if !ok {
		return 0
	}
	y, ok := number(b)
	if !ok {
		return 0
	}
	return cmp.Compare(x, y)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

type Page[T any] struct {
	Rows        []T  `json:"rows"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	RowsPerPage int  `json:"rowsPerPage"`
	EmptyRows   int  `json:"emptyRows"`
	NotFound    bool `json:"notFound"`
}

const DefaultRowsPerPage = 5

// Paginate slices one page out of rows. EmptyRows is the filler needed to
// keep the last page as tall as the others.
func Paginate[T any](rows []T, page, rowsPerPage int) Page[T] {
	if rowsPerPage <= 0 {
		rowsPerPage = DefaultRowsPerPage
	}
	if page < 0 {
		page = 0
	}

	total := len(rows)
	start := min(page*rowsPerPage, total)
	end := min(start+rowsPerPage, total)

	empty := 0
	if page > 0 {
		empty = max(0, (1+page)*rowsPerPage-total)
	}

	return Page[T]{
		Rows:        append([]T{}, rows[start:end]...),
		Total:       total,
		Page:        page,
		RowsPerPage: rowsPerPage,
		EmptyRows:   empty,
		NotFound:    total == 0,
	}
}
