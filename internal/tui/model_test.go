package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/resource"
)

// runCmd executes cmd and flattens batches, skipping ticks
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, runCmd(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

func TestNew_StartsInLoginWithoutSession(t *testing.T) {
	m := CreateTestModel(t, false)

	AssertModelField(t, "mode", m.mode, ModeLogin)
	AssertModelField(t, "resource", m.def.Name, "courses")
	if !strings.Contains(m.View(), "Sign in") {
		t.Error("Expected sign-in form to be rendered")
	}
}

func TestNew_StartsBrowsingWithSession(t *testing.T) {
	m := CreateTestModel(t, true)

	AssertModelField(t, "mode", m.mode, ModeBrowse)
	AssertModelField(t, "pageSize", m.table.Pagination().PageSize, 10)
}

func TestNew_UnknownResource(t *testing.T) {
	m := CreateTestModel(t, true)

	_, err := New(Options{
		Client:    m.client,
		Session:   m.session,
		Resources: resource.Builtins(),
		Resource:  "lessons",
	})
	if err == nil {
		t.Fatal("Expected error for unknown resource, got nil")
	}
}

func TestLogin_SignsInAndLoadsFirstPage(t *testing.T) {
	m := CreateTestModel(t, false)

	typeText(m, "ada@example.com")
	pressKey(m, "enter")
	AssertModelField(t, "loginFocus", m.loginFocus, 1)

	typeText(m, "secret")
	cmd := pressKey(m, "enter")
	if !m.loading {
		t.Fatal("Expected loading after submit")
	}

	var result *loginResultMsg
	for _, msg := range runCmd(cmd) {
		if r, ok := msg.(loginResultMsg); ok {
			result = &r
		}
	}
	if result == nil {
		t.Fatal("Expected a loginResultMsg")
	}
	if result.err != nil {
		t.Fatalf("Expected sign in to succeed, got %v", result.err)
	}

	m.Update(*result)
	AssertModelField(t, "mode", m.mode, ModeBrowse)
	if !m.session.IsAuthenticated() {
		t.Error("Expected session to be authenticated")
	}
	if m.loginInputs[1].Value() != "" {
		t.Error("Expected password field to be cleared")
	}

	msg := m.loadInitial()()
	m.Update(msg)
	if m.profile == nil || m.profile.DisplayName() != "Ada Lovelace" {
		t.Errorf("Expected profile Ada Lovelace, got %+v", m.profile)
	}
	AssertModelField(t, "rows", len(m.rows), 1)
	AssertModelField(t, "rowCount", m.table.RowCount(), 1)
}

func TestLogin_RequiresBothFields(t *testing.T) {
	m := CreateTestModel(t, false)

	pressKey(m, "enter") // to password
	pressKey(m, "enter")

	if m.loading {
		t.Error("Expected no request with empty fields")
	}
	if !strings.Contains(m.errorMsg, "required") {
		t.Errorf("Expected required error, got %q", m.errorMsg)
	}
}

func TestSearch_DebounceCommitsLatestTicket(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "/")
	AssertModelField(t, "mode", m.mode, ModeSearch)

	typeText(m, "go")
	AssertModelField(t, "raw text", m.toolbar.RawText(), "go")
	if m.table.ColumnFilterValue("title") != nil {
		t.Fatal("Expected no filter before the debounce fires")
	}

	m.Update(searchDebounceMsg{ticket: 1})
	if m.table.ColumnFilterValue("title") != nil {
		t.Error("Expected stale ticket to be ignored")
	}

	before := m.requestID
	m.Update(searchDebounceMsg{ticket: 2})
	if got := datatable.TextValue(m.table.ColumnFilterValue("title")); got != "go" {
		t.Errorf("Expected title filter %q, got %q", "go", got)
	}
	if m.requestID != before+1 {
		t.Errorf("Expected a fetch after commit, requestID %d -> %d", before, m.requestID)
	}
}

func TestSearch_EnterFlushesPendingText(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "/")
	typeText(m, "rust")
	pressKey(m, "enter")

	AssertModelField(t, "mode", m.mode, ModeBrowse)
	if got := datatable.TextValue(m.table.ColumnFilterValue("title")); got != "rust" {
		t.Errorf("Expected title filter %q, got %q", "rust", got)
	}
	if m.toolbar.Pending() {
		t.Error("Expected no pending debounce after enter")
	}
}

func TestSearch_TabCyclesSearchKey(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "/")
	typeText(m, "go")
	pressKey(m, "enter")
	pressKey(m, "/")
	pressKey(m, "tab")

	AssertModelField(t, "active key", m.toolbar.ActiveKey(), "instructor.fullName")
	if m.table.ColumnFilterValue("title") != nil {
		t.Error("Expected title filter to be cleared when the key changes")
	}
	AssertModelField(t, "search value", m.search.Value(), "")
}

func TestPageLoaded_IgnoresStaleResponse(t *testing.T) {
	m := CreateTestModel(t, true)
	m.requestID = 5

	m.Update(pageLoadedMsg{requestID: 4, page: resource.Page{
		Items: []resource.Record{{"title": "old"}},
		Total: 1,
	}})
	AssertModelField(t, "rows after stale", len(m.rows), 0)

	m.Update(pageLoadedMsg{requestID: 5, page: resource.Page{
		Items: []resource.Record{{"title": "new"}, {"title": "newer"}},
		Total: 2,
	}})
	AssertModelField(t, "rows after latest", len(m.rows), 2)
	AssertModelField(t, "rowCount", m.table.RowCount(), 2)
}

func TestPageLoaded_StepsBackPastLastPage(t *testing.T) {
	m := CreateTestModel(t, true)

	loadPage(m, 100)
	m.table.SetPageIndex(5)
	AssertModelField(t, "pageIndex", m.table.Pagination().PageIndex, 5)

	loadPage(m, 25)
	AssertModelField(t, "pageIndex", m.table.Pagination().PageIndex, 2)
}

func TestPageLoaded_ErrorShowsMessage(t *testing.T) {
	m := CreateTestModel(t, true)

	m.Update(pageLoadedMsg{requestID: m.requestID, err: &apiclient.APIError{Code: 500, Message: "boom"}})

	AssertModelField(t, "mode", m.mode, ModeBrowse)
	if !strings.Contains(m.fullErrorMsg, "boom") {
		t.Errorf("Expected error message to contain boom, got %q", m.fullErrorMsg)
	}
}

func TestSessionExpired_ReturnsToLogin(t *testing.T) {
	m := CreateTestModel(t, true)
	before := m.requestID

	m.Update(sessionExpiredMsg{err: apiclient.ErrSessionExpired})

	AssertModelField(t, "mode", m.mode, ModeLogin)
	if !strings.Contains(m.errorMsg, "Session expired") {
		t.Errorf("Expected session expired message, got %q", m.errorMsg)
	}
	if m.requestID == before {
		t.Error("Expected in-flight responses to be invalidated")
	}
}

func TestSessionExpired_FromFetchError(t *testing.T) {
	m := CreateTestModel(t, true)

	m.Update(pageLoadedMsg{requestID: m.requestID, err: &apiclient.RefreshError{}})

	AssertModelField(t, "mode", m.mode, ModeLogin)
}

func TestToolbar_ResetVisibility(t *testing.T) {
	m := CreateTestModel(t, true)

	if strings.Contains(m.renderToolbar(), "Reset") {
		t.Error("Expected no reset control without filters")
	}

	m.toolbar.SetFacet("status", []string{"published"})
	if !strings.Contains(m.renderToolbar(), "Reset") {
		t.Error("Expected reset control with an active facet")
	}

	pressKey(m, "x")
	if m.toolbar.CanReset() {
		t.Error("Expected filters to be cleared")
	}
	if strings.Contains(m.renderToolbar(), "Reset") {
		t.Error("Expected reset control to disappear after reset")
	}
}

func TestBrowse_CyclePageSizeResetsIndex(t *testing.T) {
	m := CreateTestModel(t, true)

	loadPage(m, 100)
	m.table.SetPageIndex(3)
	pressKey(m, "z")

	p := m.table.Pagination()
	AssertModelField(t, "pageSize", p.PageSize, 20)
	AssertModelField(t, "pageIndex", p.PageIndex, 0)
}

func TestBrowse_Pagination(t *testing.T) {
	m := CreateTestModel(t, true)

	loadPage(m, 35)
	pressKey(m, "l")
	AssertModelField(t, "after next", m.table.Pagination().PageIndex, 1)
	pressKey(m, "L")
	AssertModelField(t, "after last", m.table.Pagination().PageIndex, 3)
	pressKey(m, "l")
	AssertModelField(t, "next on last", m.table.Pagination().PageIndex, 3)
	pressKey(m, "H")
	AssertModelField(t, "after first", m.table.Pagination().PageIndex, 0)

	if !strings.Contains(m.renderPagination(), "Page 1 of 4") {
		t.Errorf("Expected page position in footer, got %q", m.renderPagination())
	}
}

func TestBrowse_ToggleSortOnFocusedColumn(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "s")
	AssertModelField(t, "title sort", m.table.SortDirection("title"), "asc")
	AssertModelField(t, "createdAt sort", m.table.SortDirection("createdAt"), "")

	pressKey(m, "s")
	AssertModelField(t, "title sort", m.table.SortDirection("title"), "desc")

	pressKey(m, "]")
	AssertModelField(t, "colIndex", m.colIndex, 1)
}

func TestFacetPicker_TogglesApplyImmediately(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "f")
	AssertModelField(t, "mode", m.mode, ModeFacet)
	AssertModelField(t, "facetColumn", m.facetColumn, "status")

	before := m.requestID
	pressKey(m, " ")
	selected := m.toolbar.FacetSelection("status")
	if len(selected) != 1 || selected[0] != "published" {
		t.Errorf("Expected [published], got %v", selected)
	}
	if m.requestID != before+1 {
		t.Error("Expected a fetch after toggling a facet")
	}

	pressKey(m, "tab")
	AssertModelField(t, "facetColumn", m.facetColumn, "level")

	pressKey(m, "esc")
	AssertModelField(t, "mode", m.mode, ModeBrowse)
}

func TestResourcePicker_SwitchesTable(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "R")
	AssertModelField(t, "mode", m.mode, ModeResourcePicker)

	typeText(m, "users")
	pressKey(m, "enter")

	AssertModelField(t, "mode", m.mode, ModeBrowse)
	AssertModelField(t, "resource", m.def.Name, "users")
	AssertModelField(t, "active key", m.toolbar.ActiveKey(), "fullName")
}

func TestDetail_OpensSelectedRow(t *testing.T) {
	m := CreateTestModel(t, true)
	loadPage(m, 1, resource.Record{"id": "c1", "title": "Go basics"})

	cmd := pressKey(m, "enter")
	AssertModelField(t, "mode", m.mode, ModeDetail)
	AssertModelField(t, "detailID", m.detailID, "c1")
	if !strings.Contains(m.detailRaw, "Go basics") {
		t.Errorf("Expected detail to show the row, got %q", m.detailRaw)
	}
	if cmd == nil {
		t.Error("Expected a fetch of the full record")
	}

	m.Update(detailLoadedMsg{id: "c1", record: resource.Record{"id": "c1", "title": "Go basics", "lessons": 12.0}})
	if !strings.Contains(m.detailRaw, "lessons") {
		t.Errorf("Expected detail to be refreshed, got %q", m.detailRaw)
	}

	pressKey(m, "esc")
	AssertModelField(t, "mode", m.mode, ModeBrowse)
}

func TestViews_SaveAndLoad(t *testing.T) {
	m := CreateTestModelWithViews(t)

	m.toolbar.SetFacet("status", []string{"draft"})
	msg := m.saveView("drafts")()
	saved, ok := msg.(viewSavedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("Expected view to be saved, got %#v", msg)
	}
	if !saved.created {
		t.Error("Expected a new view")
	}

	m.toolbar.Reset()
	if m.toolbar.CanReset() {
		t.Fatal("Expected filters to be cleared")
	}

	m.loadView("drafts")
	selected := m.toolbar.FacetSelection("status")
	if len(selected) != 1 || selected[0] != "draft" {
		t.Errorf("Expected restored facet [draft], got %v", selected)
	}
	if !m.fetchNeeded {
		t.Error("Expected a fetch after loading a view")
	}
}

func TestViews_DisabledWithoutStore(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "v")
	AssertModelField(t, "mode", m.mode, ModeBrowse)
	if !strings.Contains(m.errorMsg, "not available") {
		t.Errorf("Expected views unavailable message, got %q", m.errorMsg)
	}
}

func TestHelp_OpensAndCloses(t *testing.T) {
	m := CreateTestModel(t, true)

	pressKey(m, "?")
	AssertModelField(t, "mode", m.mode, ModeHelp)
	if !strings.Contains(m.View(), "Keybindings") {
		t.Error("Expected help to render")
	}

	pressKey(m, "esc")
	AssertModelField(t, "mode", m.mode, ModeBrowse)
}

func TestHighlightJSON(t *testing.T) {
	out := highlightJSON(`{"title": "Go basics", "price": 10}`)

	for _, want := range []string{"title", "Go basics", "price"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected highlighted output to contain %q", want)
		}
	}
}
