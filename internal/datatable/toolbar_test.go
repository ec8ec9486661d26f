package datatable

import (
	"slices"
	"testing"
)

// recordingModel wraps a table and records every applied text filter
type recordingModel struct {
	*Table[book]
	applied []ColumnFilter
}

func (m *recordingModel) SetColumnFilterValue(columnID string, value any) {
	m.applied = append(m.applied, ColumnFilter{ColumnID: columnID, Value: value})
	m.Table.SetColumnFilterValue(columnID, value)
}

func (m *recordingModel) SetGlobalFilter(value string) {
	m.applied = append(m.applied, ColumnFilter{ColumnID: "*", Value: value})
	m.Table.SetGlobalFilter(value)
}

func newRecordingModel() *recordingModel {
	return &recordingModel{Table: newBookTable(Options{})}
}

var multiKeyConfig = Config{
	SearchKeys: []SearchKey{
		{Value: "title", Label: "Title"},
		{Value: "author", Label: "Author"},
	},
	Filters: []FacetFilter{
		{ColumnID: "status", Title: "Status", Options: []Option{
			{Label: "Published", Value: "published"},
			{Label: "Draft", Value: "draft"},
		}},
	},
}

func TestDebouncer_OnlyLatestFires(t *testing.T) {
	var d Debouncer

	first := d.Schedule()
	second := d.Schedule()

	if d.Fire(first) {
		t.Error("Expected superseded ticket not to fire")
	}
	if !d.Pending() {
		t.Error("Expected latest ticket still pending")
	}
	if !d.Fire(second) {
		t.Error("Expected latest ticket to fire")
	}
	if d.Fire(second) {
		t.Error("Expected ticket to fire only once")
	}

	third := d.Schedule()
	d.Cancel()
	if d.Fire(third) {
		t.Error("Expected cancelled ticket not to fire")
	}
	if d.Pending() {
		t.Error("Expected nothing pending after cancel")
	}
	if d.Fire(Ticket(0)) {
		t.Error("Expected zero ticket never to fire")
	}
}

func TestToolbar_Modes(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		expected SearchMode
		key      string
	}{
		{"global", Config{}, SearchGlobal, ""},
		{"single", Config{SearchKey: "title"}, SearchSingleKey, "title"},
		{"multi", multiKeyConfig, SearchMultiKey, "title"},
		{"multi wins", Config{SearchKey: "author", SearchKeys: multiKeyConfig.SearchKeys}, SearchMultiKey, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := NewToolbar(newBookTable(Options{}), tt.cfg)
			if tb.Mode() != tt.expected {
				t.Errorf("Expected mode %v, got %v", tt.expected, tb.Mode())
			}
			if tb.ActiveKey() != tt.key {
				t.Errorf("Expected active key %q, got %q", tt.key, tb.ActiveKey())
			}
		})
	}
}

// Typing "abc" then "abcd" inside the window applies only "abcd"
func TestToolbar_DebounceAppliesFinalTextOnly(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, Config{SearchKey: "title"})

	tickets := []Ticket{tb.Input("a"), tb.Input("ab"), tb.Input("abc"), tb.Input("abcd")}

	// Timers of earlier keystrokes elapse first; they must be void
	for _, ticket := range tickets[:3] {
		if tb.Commit(ticket) {
			t.Errorf("Expected superseded ticket %d not to commit", ticket)
		}
	}
	if len(model.applied) != 0 {
		t.Fatalf("Expected no intermediate filter, got %v", model.applied)
	}

	if !tb.Commit(tickets[3]) {
		t.Fatal("Expected final ticket to commit")
	}
	if len(model.applied) != 1 {
		t.Fatalf("Expected exactly one filter application, got %d", len(model.applied))
	}
	if got := TextValue(model.ColumnFilterValue("title")); got != "abcd" {
		t.Errorf("Expected title filter abcd, got %q", got)
	}
}

func TestToolbar_GlobalMode(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, Config{})

	ticket := tb.Input("dune")
	if !tb.Commit(ticket) {
		t.Fatal("Expected commit")
	}
	if model.GlobalFilter() != "dune" {
		t.Errorf("Expected global filter dune, got %q", model.GlobalFilter())
	}
	if len(model.ColumnFilters()) != 0 {
		t.Errorf("Expected no column filters in global mode, got %v", model.ColumnFilters())
	}
}

// keys [title, author]: select author, type Tolstoy
func TestToolbar_MultiKeySwitch(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, multiKeyConfig)

	tb.Commit(tb.Input("war"))
	if TextValue(model.ColumnFilterValue("title")) != "war" {
		t.Fatal("Expected title filter before switching")
	}

	if err := tb.SelectKey("author"); err != nil {
		t.Fatalf("SelectKey failed: %v", err)
	}
	if model.ColumnFilterValue("title") != nil {
		t.Errorf("Expected title filter cleared, got %v", model.ColumnFilterValue("title"))
	}
	if tb.RawText() != "" {
		t.Errorf("Expected raw text reset, got %q", tb.RawText())
	}
	if model.ColumnFilterValue("author") != nil {
		t.Error("Expected new key not filtered before fresh input")
	}

	tb.Commit(tb.Input("Tolstoy"))
	if got := TextValue(model.ColumnFilterValue("author")); got != "Tolstoy" {
		t.Errorf("Expected author filter Tolstoy, got %q", got)
	}
	if model.ColumnFilterValue("title") != nil {
		t.Error("Expected title filter to stay cleared")
	}
	if got := titles(model.FilteredRows()); !slices.Equal(got, []string{"War and Peace", "Anna Karenina"}) {
		t.Errorf("Expected Tolstoy books, got %v", got)
	}
}

func TestToolbar_KeySwitchVoidsPendingTimer(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, multiKeyConfig)

	stale := tb.Input("Anna")
	if err := tb.SelectKey("author"); err != nil {
		t.Fatalf("SelectKey failed: %v", err)
	}

	if tb.Commit(stale) {
		t.Error("Expected timer from previous key not to commit")
	}
	if len(model.ColumnFilters()) != 0 {
		t.Errorf("Expected no filters, got %v", model.ColumnFilters())
	}
	if tb.Pending() {
		t.Error("Expected no pending debounce after key switch")
	}
}

func TestToolbar_SelectKeyErrors(t *testing.T) {
	single := NewToolbar(newBookTable(Options{}), Config{SearchKey: "title"})
	if err := single.SelectKey("author"); err == nil {
		t.Error("Expected error selecting key in single-key mode")
	}

	multi := NewToolbar(newBookTable(Options{}), multiKeyConfig)
	if err := multi.SelectKey("isbn"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

func TestToolbar_SeedsFromExistingFilter(t *testing.T) {
	tbl := newBookTable(Options{})
	tbl.SetColumnFilterValue("title", "peace")

	tb := NewToolbar(tbl, multiKeyConfig)
	if tb.RawText() != "peace" {
		t.Errorf("Expected raw text seeded from filter, got %q", tb.RawText())
	}
	if TextValue(tbl.ColumnFilterValue("title")) != "peace" {
		t.Error("Expected seeded key filter to be kept")
	}

	// A filter on a later key selects that key
	other := newBookTable(Options{})
	other.SetColumnFilterValue("author", "Herbert")
	tb = NewToolbar(other, multiKeyConfig)
	if tb.ActiveKey() != "author" || tb.RawText() != "Herbert" {
		t.Errorf("Expected author/Herbert, got %s/%q", tb.ActiveKey(), tb.RawText())
	}

	global := newBookTable(Options{})
	global.SetGlobalFilter("go")
	tb = NewToolbar(global, Config{})
	if tb.RawText() != "go" {
		t.Errorf("Expected raw text seeded from global filter, got %q", tb.RawText())
	}
}

func TestToolbar_Facets(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, multiKeyConfig)

	tb.ToggleFacet("status", "published")
	tb.ToggleFacet("status", "draft")
	if got := tb.FacetSelection("status"); !slices.Equal(got, []string{"published", "draft"}) {
		t.Errorf("Expected [published draft], got %v", got)
	}
	if model.RowCount() != 4 {
		t.Errorf("Expected 4 rows, got %d", model.RowCount())
	}

	tb.ToggleFacet("status", "published")
	tb.ToggleFacet("status", "draft")
	if model.ColumnFilterValue("status") != nil {
		t.Error("Expected empty selection to remove the filter")
	}
	if model.RowCount() != 5 {
		t.Errorf("Expected empty selection to match everything, got %d rows", model.RowCount())
	}

	tb.SetFacet("status", []string{"archived"})
	tb.ClearFacet("status")
	if len(model.ColumnFilters()) != 0 {
		t.Errorf("Expected no filters after ClearFacet, got %v", model.ColumnFilters())
	}

	facet, ok := tb.Config().Facet("status")
	if !ok || facet.Label("draft") != "Draft" {
		t.Errorf("Expected Draft label, got %v", facet)
	}
}

func TestToolbar_ResetVisibilityAndBaseline(t *testing.T) {
	count := 0
	tbl := New(bookColumns(), Options{OnStateChange: func(State) { count++ }})
	tbl.SetData(sampleBooks())
	tb := NewToolbar(tbl, multiKeyConfig)

	if tb.CanReset() {
		t.Error("Expected reset hidden with no filters")
	}

	tb.ToggleFacet("status", "draft")
	if !tb.CanReset() {
		t.Error("Expected reset visible with a facet selected")
	}
	tb.Commit(tb.Input("anna"))
	pending := tb.Input("anna k")

	count = 0
	tb.Reset()

	if count != 1 {
		t.Errorf("Expected reset as one state change, got %d", count)
	}
	if tb.CanReset() {
		t.Error("Expected reset hidden after reset")
	}
	if tb.RawText() != "" {
		t.Errorf("Expected raw text cleared, got %q", tb.RawText())
	}
	if tb.Commit(pending) {
		t.Error("Expected pending debounce dropped by reset")
	}
	if tbl.State().IsFiltered() {
		t.Errorf("Expected empty baseline, got %+v", tbl.State())
	}

	tbl.SetGlobalFilter("x")
	if !tb.CanReset() {
		t.Error("Expected reset visible with a global filter")
	}
}

func TestToolbar_FlushAndClose(t *testing.T) {
	model := newRecordingModel()
	tb := NewToolbar(model, Config{SearchKey: "author"})

	ticket := tb.Input("Herbert")
	if !tb.Flush() {
		t.Fatal("Expected flush to apply pending text")
	}
	if tb.Commit(ticket) {
		t.Error("Expected flushed ticket not to commit again")
	}
	if TextValue(model.ColumnFilterValue("author")) != "Herbert" {
		t.Error("Expected author filter Herbert")
	}

	late := tb.Input("Herb")
	tb.Close()
	if tb.Commit(late) {
		t.Error("Expected closed toolbar not to commit")
	}
	if TextValue(model.ColumnFilterValue("author")) != "Herbert" {
		t.Error("Expected filter unchanged after close")
	}
}
