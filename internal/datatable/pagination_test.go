package datatable

import "testing"

func rowsOf(n int) []book {
	rows := make([]book, n)
	for i := range rows {
		rows[i] = book{Title: string(rune('A' + i%26))}
	}
	return rows
}

func TestPagination_Navigation(t *testing.T) {
	tbl := New(bookColumns(), Options{PageSize: 10})
	tbl.SetData(rowsOf(45))

	if tbl.PageCount() != 5 {
		t.Fatalf("Expected 5 pages, got %d", tbl.PageCount())
	}
	if tbl.CanPreviousPage() {
		t.Error("Expected no previous page on first page")
	}

	tbl.NextPage()
	tbl.NextPage()
	if got := tbl.Pagination().PageIndex; got != 2 {
		t.Errorf("Expected page 2, got %d", got)
	}

	tbl.LastPage()
	if got := tbl.Pagination().PageIndex; got != 4 {
		t.Errorf("Expected page 4, got %d", got)
	}
	if tbl.CanNextPage() {
		t.Error("Expected no next page on last page")
	}
	if got := len(tbl.Rows()); got != 5 {
		t.Errorf("Expected 5 rows on last page, got %d", got)
	}

	tbl.NextPage()
	if got := tbl.Pagination().PageIndex; got != 4 {
		t.Errorf("Expected NextPage on last page to stay at 4, got %d", got)
	}

	tbl.PreviousPage()
	if got := tbl.Pagination().PageIndex; got != 3 {
		t.Errorf("Expected page 3, got %d", got)
	}

	tbl.FirstPage()
	tbl.PreviousPage()
	if got := tbl.Pagination().PageIndex; got != 0 {
		t.Errorf("Expected PreviousPage on first page to stay at 0, got %d", got)
	}
}

func TestPagination_SetPageIndexClamps(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{-3, 0},
		{1, 1},
		{99, 2},
	}

	for _, tt := range tests {
		tbl := New(bookColumns(), Options{PageSize: 10})
		tbl.SetData(rowsOf(25))
		tbl.SetPageIndex(tt.input)
		if got := tbl.Pagination().PageIndex; got != tt.expected {
			t.Errorf("SetPageIndex(%d): expected %d, got %d", tt.input, tt.expected, got)
		}
	}

	empty := New(bookColumns(), Options{})
	empty.SetPageIndex(3)
	if got := empty.Pagination().PageIndex; got != 0 {
		t.Errorf("Expected page 0 with no rows, got %d", got)
	}
}

func TestPagination_PageSizeResetsIndex(t *testing.T) {
	for _, size := range PageSizeOptions {
		tbl := New(bookColumns(), Options{PageSize: 10})
		tbl.SetData(rowsOf(200))
		tbl.SetPageIndex(7)

		tbl.SetPageSize(size)
		if got := tbl.Pagination().PageIndex; got != 0 {
			t.Errorf("SetPageSize(%d): expected page index 0, got %d", size, got)
		}
		if got := tbl.Pagination().PageSize; got != size {
			t.Errorf("Expected page size %d, got %d", size, got)
		}
	}

	tbl := New(bookColumns(), Options{PageSize: 10})
	tbl.SetPageSize(0)
	if tbl.Pagination().PageSize != 10 {
		t.Error("Expected non-positive page size to be ignored")
	}
}

func TestPagination_ManualUsesServerCount(t *testing.T) {
	var last State
	tbl := New(bookColumns(), Options{ManualPagination: true, PageSize: 20, OnStateChange: func(s State) { last = s }})
	tbl.SetData(rowsOf(20))
	tbl.SetRowCount(95)

	if tbl.PageCount() != 5 {
		t.Fatalf("Expected 5 pages, got %d", tbl.PageCount())
	}

	tbl.LastPage()
	if last.Pagination.PageIndex != 4 {
		t.Errorf("Expected page intent 4, got %d", last.Pagination.PageIndex)
	}
	if got := len(tbl.Rows()); got != 20 {
		t.Errorf("Expected server page untouched (20 rows), got %d", got)
	}
}

func TestNextPageSize(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{10, 20},
		{50, 10},
		{15, 10},
	}
	for _, tt := range tests {
		if got := NextPageSize(tt.input); got != tt.expected {
			t.Errorf("NextPageSize(%d): expected %d, got %d", tt.input, tt.expected, got)
		}
	}
}
