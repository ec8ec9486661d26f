package datatable

import (
	"reflect"
	"slices"
)

// ColumnFilter is the applied filter of one column.
// Value is a string for text search or a []string for a facet selection.
type ColumnFilter struct {
	ColumnID string
	Value    any
}

// SortingRule orders rows by one column
type SortingRule struct {
	ColumnID string
	Desc     bool
}

// Pagination is the current page window
type Pagination struct {
	PageIndex int // 0-based
	PageSize  int
}

// State is everything a query layer needs to fetch the current view
type State struct {
	ColumnFilters []ColumnFilter
	GlobalFilter  string
	Sorting       []SortingRule
	Pagination    Pagination
}

// Clone returns a deep copy
func (s State) Clone() State {
	out := State{
		GlobalFilter: s.GlobalFilter,
		Sorting:      slices.Clone(s.Sorting),
		Pagination:   s.Pagination,
	}
	if s.ColumnFilters != nil {
		out.ColumnFilters = make([]ColumnFilter, len(s.ColumnFilters))
		for i, f := range s.ColumnFilters {
			out.ColumnFilters[i] = ColumnFilter{ColumnID: f.ColumnID, Value: cloneValue(f.Value)}
		}
	}
	return out
}

// Equal reports whether two states describe the same view
func (s State) Equal(o State) bool {
	return s.GlobalFilter == o.GlobalFilter &&
		s.Pagination == o.Pagination &&
		slices.Equal(s.Sorting, o.Sorting) &&
		filtersEqual(s.ColumnFilters, o.ColumnFilters)
}

// IsFiltered reports whether any column filter or the global filter is set
func (s State) IsFiltered() bool {
	return len(s.ColumnFilters) > 0 || s.GlobalFilter != ""
}

func filtersEqual(a, b []ColumnFilter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ColumnID != b[i].ColumnID || !valuesEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	default:
		return reflect.DeepEqual(a, b)
	}
}

func cloneValue(v any) any {
	if set, ok := v.([]string); ok {
		return slices.Clone(set)
	}
	return v
}

// isEmptyValue reports values that mean "no filter"
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case []string:
		return len(val) == 0
	default:
		return false
	}
}

// TextValue returns v when it is a text filter, "" otherwise
func TextValue(v any) string {
	s, _ := v.(string)
	return s
}

// SetValue returns v when it is a facet selection, nil otherwise
func SetValue(v any) []string {
	set, _ := v.([]string)
	return set
}
