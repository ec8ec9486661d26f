// Package datatable is the state behind the table browser: column and global
// filters, faceted filters, debounced search, sorting and pagination over a
// generic row model.
package datatable

import (
	"slices"
	"strings"
)

// Column describes how a table reads one column from a row
type Column[T any] struct {
	ID                 string
	Header             string
	Accessor           func(T) any
	FilterFn           FilterFunc
	EnableSorting      bool
	EnableGlobalFilter bool
}

func (c Column[T]) value(row T) any {
	if c.Accessor == nil {
		return nil
	}
	return c.Accessor(row)
}

func (c Column[T]) filter(cell, value any) bool {
	if c.FilterFn != nil {
		return c.FilterFn(cell, value)
	}
	return FilterDefault(cell, value)
}

// Options configures a Table.
// Manual* flags mean the data source already applied that step (server side).
type Options struct {
	ManualPagination bool
	ManualFiltering  bool
	ManualSorting    bool
	PageSize         int
	OnStateChange    func(State)
}

// Table is a generic row/column model with filtering, sorting and pagination.
// It is not safe for concurrent use; the UI loop owns it.
type Table[T any] struct {
	columns  []Column[T]
	index    map[string]int
	data     []T
	rowCount int
	opts     Options
	state    State
}

// New creates a table over columns
func New[T any](columns []Column[T], opts Options) *Table[T] {
	if opts.PageSize <= 0 {
		opts.PageSize = PageSizeOptions[0]
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.ID] = i
	}
	return &Table[T]{
		columns: columns,
		index:   index,
		opts:    opts,
		state: State{
			Pagination: Pagination{PageIndex: 0, PageSize: opts.PageSize},
		},
	}
}

// Columns returns the column definitions
func (t *Table[T]) Columns() []Column[T] {
	return t.columns
}

// Column returns the column with id
func (t *Table[T]) Column(id string) (Column[T], bool) {
	i, ok := t.index[id]
	if !ok {
		return Column[T]{}, false
	}
	return t.columns[i], true
}

// State returns a snapshot of the current state
func (t *Table[T]) State() State {
	return t.state.Clone()
}

// SetState replaces the whole state (restoring a saved view)
func (t *Table[T]) SetState(s State) {
	t.update(func(cur *State) {
		*cur = s.Clone()
		if cur.Pagination.PageSize <= 0 {
			cur.Pagination.PageSize = t.opts.PageSize
		}
		if cur.Pagination.PageIndex < 0 {
			cur.Pagination.PageIndex = 0
		}
	})
}

// SetOnStateChange replaces the state change callback
func (t *Table[T]) SetOnStateChange(fn func(State)) {
	t.opts.OnStateChange = fn
}

// update applies fn and notifies only when the state actually changed
func (t *Table[T]) update(fn func(s *State)) {
	prev := t.state.Clone()
	fn(&t.state)
	if prev.Equal(t.state) {
		return
	}
	if t.opts.OnStateChange != nil {
		t.opts.OnStateChange(t.state.Clone())
	}
}

// updateFilters applies fn and returns to the first page if filters changed
func (t *Table[T]) updateFilters(fn func(s *State)) {
	t.update(func(s *State) {
		prevFilters := slices.Clone(s.ColumnFilters)
		prevGlobal := s.GlobalFilter
		fn(s)
		if s.GlobalFilter != prevGlobal || !filtersEqual(prevFilters, s.ColumnFilters) {
			s.Pagination.PageIndex = 0
		}
	})
}

// ColumnFilterValue returns the filter value of columnID or nil
func (t *Table[T]) ColumnFilterValue(columnID string) any {
	for _, f := range t.state.ColumnFilters {
		if f.ColumnID == columnID {
			return cloneValue(f.Value)
		}
	}
	return nil
}

// SetColumnFilterValue sets the filter of columnID.
// An empty string, empty set or nil removes the filter.
func (t *Table[T]) SetColumnFilterValue(columnID string, value any) {
	t.updateFilters(func(s *State) {
		i := slices.IndexFunc(s.ColumnFilters, func(f ColumnFilter) bool { return f.ColumnID == columnID })
		switch {
		case isEmptyValue(value) && i >= 0:
			s.ColumnFilters = slices.Delete(s.ColumnFilters, i, i+1)
		case isEmptyValue(value):
		case i >= 0:
			s.ColumnFilters[i].Value = cloneValue(value)
		default:
			s.ColumnFilters = append(s.ColumnFilters, ColumnFilter{ColumnID: columnID, Value: cloneValue(value)})
		}
		if len(s.ColumnFilters) == 0 {
			s.ColumnFilters = nil
		}
	})
}

// ColumnFilters returns the applied column filters
func (t *Table[T]) ColumnFilters() []ColumnFilter {
	return t.state.Clone().ColumnFilters
}

// ResetColumnFilters removes every column filter
func (t *Table[T]) ResetColumnFilters() {
	t.updateFilters(func(s *State) { s.ColumnFilters = nil })
}

// GlobalFilter returns the global filter text
func (t *Table[T]) GlobalFilter() string {
	return t.state.GlobalFilter
}

// SetGlobalFilter sets the text matched across global-filterable columns
func (t *Table[T]) SetGlobalFilter(value string) {
	t.updateFilters(func(s *State) { s.GlobalFilter = value })
}

// ResetFilters clears column filters and the global filter as one change
func (t *Table[T]) ResetFilters() {
	t.updateFilters(func(s *State) {
		s.ColumnFilters = nil
		s.GlobalFilter = ""
	})
}

// Sorting returns the sorting rules
func (t *Table[T]) Sorting() []SortingRule {
	return slices.Clone(t.state.Sorting)
}

// SetSorting replaces the sorting rules
func (t *Table[T]) SetSorting(rules []SortingRule) {
	t.update(func(s *State) {
		if len(rules) == 0 {
			s.Sorting = nil
			return
		}
		s.Sorting = slices.Clone(rules)
	})
}

// ToggleSorting cycles columnID through ascending, descending and unsorted.
// Columns without EnableSorting are ignored.
func (t *Table[T]) ToggleSorting(columnID string) {
	col, ok := t.Column(columnID)
	if !ok || !col.EnableSorting {
		return
	}

	current := slices.IndexFunc(t.state.Sorting, func(r SortingRule) bool { return r.ColumnID == columnID })
	switch {
	case current < 0:
		t.SetSorting([]SortingRule{{ColumnID: columnID}})
	case !t.state.Sorting[current].Desc:
		t.SetSorting([]SortingRule{{ColumnID: columnID, Desc: true}})
	default:
		t.SetSorting(nil)
	}
}

// SortDirection returns "asc", "desc" or "" for columnID
func (t *Table[T]) SortDirection(columnID string) string {
	for _, r := range t.state.Sorting {
		if r.ColumnID == columnID {
			if r.Desc {
				return "desc"
			}
			return "asc"
		}
	}
	return ""
}

// SetData replaces the rows. With client-side pagination the page index is
// clamped to the new page count.
func (t *Table[T]) SetData(rows []T) {
	t.data = rows
	if !t.opts.ManualPagination {
		t.SetPageIndex(t.state.Pagination.PageIndex)
	}
}

// SetRowCount sets the server-reported total for manual pagination
func (t *Table[T]) SetRowCount(n int) {
	if n < 0 {
		n = 0
	}
	t.rowCount = n
}

// Data returns the rows as supplied
func (t *Table[T]) Data() []T {
	return t.data
}

// FilteredRows returns filtered and sorted rows before pagination
func (t *Table[T]) FilteredRows() []T {
	rows := t.filterRows(t.data, "")
	return t.sortRows(rows)
}

// Rows returns the rows of the current page
func (t *Table[T]) Rows() []T {
	rows := t.FilteredRows()
	if t.opts.ManualPagination {
		return rows
	}
	p := t.state.Pagination
	start := p.PageIndex * p.PageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+p.PageSize, len(rows))
	return rows[start:end]
}

// RowCount is the total number of rows across all pages
func (t *Table[T]) RowCount() int {
	if t.opts.ManualPagination {
		return t.rowCount
	}
	return len(t.filterRows(t.data, ""))
}

// filterRows applies every column filter except skip, then the global filter
func (t *Table[T]) filterRows(rows []T, skip string) []T {
	if t.opts.ManualFiltering || !t.state.IsFiltered() {
		return rows
	}

	global := strings.ToLower(t.state.GlobalFilter)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if t.rowPasses(row, skip, global) {
			out = append(out, row)
		}
	}
	return out
}

func (t *Table[T]) rowPasses(row T, skip, global string) bool {
	for _, f := range t.state.ColumnFilters {
		if f.ColumnID == skip {
			continue
		}
		col, ok := t.Column(f.ColumnID)
		if !ok {
			continue
		}
		if !col.filter(col.value(row), f.Value) {
			return false
		}
	}

	if global == "" {
		return true
	}
	for _, col := range t.columns {
		if col.EnableGlobalFilter && FilterContains(col.value(row), global) {
			return true
		}
	}
	return false
}

func (t *Table[T]) sortRows(rows []T) []T {
	if t.opts.ManualSorting || len(t.state.Sorting) == 0 {
		return rows
	}

	type sortKey struct {
		col  Column[T]
		desc bool
	}
	var keys []sortKey
	for _, r := range t.state.Sorting {
		if col, ok := t.Column(r.ColumnID); ok {
			keys = append(keys, sortKey{col: col, desc: r.Desc})
		}
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b T) int {
		for _, k := range keys {
			va, vb := k.col.value(a), k.col.value(b)
			// nil sorts last in both directions
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return 1
			case vb == nil:
				return -1
			}
			c := compareCells(va, vb)
			if k.desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
	return sorted
}

// FacetedUniqueValues counts the values of columnID over rows matching every
// other filter. List cells count each element.
func (t *Table[T]) FacetedUniqueValues(columnID string) map[string]int {
	col, ok := t.Column(columnID)
	if !ok {
		return nil
	}
	counts := make(map[string]int)
	for _, row := range t.filterRows(t.data, columnID) {
		cell := col.value(row)
		if cells, ok := cellStrings(cell); ok {
			for _, c := range cells {
				counts[c]++
			}
			continue
		}
		counts[CellString(cell)]++
	}
	return counts
}
