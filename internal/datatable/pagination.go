package datatable

// PageSizeOptions are the sizes offered by the page size selector
var PageSizeOptions = []int{10, 20, 30, 40, 50}

// Pagination returns the current page window
func (t *Table[T]) Pagination() Pagination {
	return t.state.Pagination
}

// PageCount is the number of pages for RowCount (0 when there are no rows)
func (t *Table[T]) PageCount() int {
	size := t.state.Pagination.PageSize
	if size <= 0 {
		return 1
	}
	count := t.RowCount()
	return (count + size - 1) / size
}

// SetPageIndex moves to index, clamped to the available pages
func (t *Table[T]) SetPageIndex(index int) {
	last := max(t.PageCount()-1, 0)
	index = min(max(index, 0), last)
	t.update(func(s *State) { s.Pagination.PageIndex = index })
}

// SetPageSize changes the page size and always returns to the first page
func (t *Table[T]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	t.update(func(s *State) {
		s.Pagination.PageSize = size
		s.Pagination.PageIndex = 0
	})
}

// FirstPage moves to page 0
func (t *Table[T]) FirstPage() {
	t.SetPageIndex(0)
}

// PreviousPage moves back one page
func (t *Table[T]) PreviousPage() {
	t.SetPageIndex(t.state.Pagination.PageIndex - 1)
}

// NextPage moves forward one page
func (t *Table[T]) NextPage() {
	t.SetPageIndex(t.state.Pagination.PageIndex + 1)
}

// LastPage moves to the last page
func (t *Table[T]) LastPage() {
	t.SetPageIndex(t.PageCount() - 1)
}

// CanPreviousPage reports whether a previous page exists
func (t *Table[T]) CanPreviousPage() bool {
	return t.state.Pagination.PageIndex > 0
}

// CanNextPage reports whether a next page exists
func (t *Table[T]) CanNextPage() bool {
	return t.state.Pagination.PageIndex < t.PageCount()-1
}

// NextPageSize returns the option after the current size, wrapping around
func NextPageSize(current int) int {
	for i, size := range PageSizeOptions {
		if size == current {
			return PageSizeOptions[(i+1)%len(PageSizeOptions)]
		}
	}
	return PageSizeOptions[0]
}
