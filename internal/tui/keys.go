package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/keybinds"
)

// handleKeyPress routes key presses based on current mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	// Global keys (work in all modes)
	if action, ok := m.keybinds.Match(keybinds.ContextGlobal, msg.String()); ok && action == keybinds.ActionQuitForce {
		m.Cleanup()
		return tea.Quit
	}

	// Mode-specific handling
	switch m.mode {
	case ModeLogin:
		return m.handleLoginKeys(msg)
	case ModeBrowse:
		return m.handleBrowseKeys(msg)
	case ModeSearch:
		return m.handleSearchKeys(msg)
	case ModeKeySelect, ModeFacet, ModeResourcePicker, ModeViews:
		return m.handlePickerKeys(msg)
	case ModeSaveView:
		return m.handleSaveViewKeys(msg)
	case ModeDetail:
		return m.handleDetailKeys(msg)
	case ModeHelp:
		return m.handleHelpKeys(msg)
	}
	return nil
}

// handleLoginKeys drives the sign-in form
func (m *Model) handleLoginKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextLogin, msg.String())
	if ok {
		switch action {
		case keybinds.ActionQuit:
			m.Cleanup()
			return tea.Quit

		case keybinds.ActionNextField:
			m.focusLoginField(m.loginFocus + 1)
			return nil

		case keybinds.ActionPrevField:
			m.focusLoginField(m.loginFocus - 1)
			return nil

		case keybinds.ActionTextSubmit:
			if m.loading {
				return nil
			}
			if m.loginFocus == 0 {
				m.focusLoginField(1)
				return nil
			}
			email := strings.TrimSpace(m.loginInputs[0].Value())
			password := m.loginInputs[1].Value()
			if email == "" || password == "" {
				return m.setErrorMessage("Email and password are required")
			}
			m.loading = true
			m.errorMsg = ""
			m.statusMsg = "Signing in..."
			return m.login(email, password)
		}
	}

	if m.loading {
		return nil
	}
	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return cmd
}

func (m *Model) focusLoginField(i int) {
	n := len(m.loginInputs)
	m.loginInputs[m.loginFocus].Blur()
	m.loginFocus = (i%n + n) % n
	m.loginInputs[m.loginFocus].Focus()
}

// handleBrowseKeys handles keys on the table
func (m *Model) handleBrowseKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok, pending := m.keybinds.MatchSequence(keybinds.ContextTable, msg.String())
	if pending || !ok {
		return nil
	}

	switch action {
	case keybinds.ActionQuit:
		m.Cleanup()
		return tea.Quit

	case keybinds.ActionOpenHelp:
		m.prevMode = m.mode
		m.mode = ModeHelp
		m.updateHelpView()
		m.helpView.GotoTop()

	case keybinds.ActionNavigateUp:
		m.grid.MoveUp(1)

	case keybinds.ActionNavigateDown:
		m.grid.MoveDown(1)

	case keybinds.ActionGoToTop:
		m.grid.GotoTop()

	case keybinds.ActionGoToBottom:
		m.grid.GotoBottom()

	case keybinds.ActionPrevColumn:
		if m.colIndex > 0 {
			m.colIndex--
			m.updateGrid()
		}

	case keybinds.ActionNextColumn:
		if m.colIndex < len(m.table.Columns())-1 {
			m.colIndex++
			m.updateGrid()
		}

	case keybinds.ActionFirstPage:
		m.table.FirstPage()

	case keybinds.ActionPrevPage:
		m.table.PreviousPage()

	case keybinds.ActionNextPage:
		m.table.NextPage()

	case keybinds.ActionLastPage:
		m.table.LastPage()

	case keybinds.ActionCyclePageSize:
		size := datatable.NextPageSize(m.table.Pagination().PageSize)
		m.table.SetPageSize(size)
		m.pageSize = size
		return m.setStatusMessage(fmt.Sprintf("%d rows per page", size))

	case keybinds.ActionToggleSort:
		col, ok := m.focusedColumn()
		if !ok {
			return nil
		}
		if !col.EnableSorting {
			return m.setErrorMessage(fmt.Sprintf("%s is not sortable", col.Header))
		}
		m.table.ToggleSorting(col.ID)
		m.updateGrid()

	case keybinds.ActionRefresh:
		m.fetchNeeded = true

	case keybinds.ActionOpenDetail:
		row, ok := m.selectedRow()
		if !ok {
			return nil
		}
		return m.openDetail(row)

	case keybinds.ActionSwitchResource:
		m.openResourcePicker()

	case keybinds.ActionLogout:
		return m.logout()

	case keybinds.ActionOpenSearch:
		m.mode = ModeSearch
		m.search.Placeholder = m.searchPlaceholder()
		m.search.SetValue(m.toolbar.RawText())
		m.search.CursorEnd()
		m.search.Focus()
		return textinput.Blink

	case keybinds.ActionSelectKey:
		if m.toolbar.Mode() != datatable.SearchMultiKey {
			return m.setErrorMessage(fmt.Sprintf("%s has a single search field", m.def.Title))
		}
		m.openKeyPicker()

	case keybinds.ActionOpenFacet:
		facets := m.toolbar.Facets()
		if len(facets) == 0 {
			return m.setErrorMessage(fmt.Sprintf("%s has no faceted filters", m.def.Title))
		}
		m.openFacetPicker(facets[0].ColumnID)

	case keybinds.ActionResetFilters:
		if !m.toolbar.CanReset() {
			return nil
		}
		m.toolbar.Reset()
		m.search.SetValue("")
		return m.setStatusMessage("Filters reset")

	case keybinds.ActionOpenViews:
		if m.views == nil {
			return m.setErrorMessage("Saved views are not available")
		}
		return m.loadViews()

	case keybinds.ActionSaveView:
		if m.views == nil {
			return m.setErrorMessage("Saved views are not available")
		}
		m.mode = ModeSaveView
		m.viewName.SetValue("")
		m.viewName.Focus()
		return textinput.Blink
	}
	return nil
}

func (m *Model) searchPlaceholder() string {
	if m.toolbar.Mode() == datatable.SearchGlobal {
		return "Search all columns..."
	}
	return fmt.Sprintf("Search %s...", strings.ToLower(m.toolbar.ActiveKeyLabel()))
}

// handleSearchKeys feeds the search box. Typed text reaches the table
// through the toolbar once the debounce window passes.
func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextSearch, msg.String())
	if ok {
		switch action {
		case keybinds.ActionTextSubmit:
			m.toolbar.Flush()
			m.leaveSearch()
			return nil

		case keybinds.ActionTextCancel:
			// A pending ticket still commits when it fires
			m.leaveSearch()
			return nil

		case keybinds.ActionTextClear:
			m.search.SetValue("")
			return m.scheduleSearch(m.toolbar.Input(""))

		case keybinds.ActionSelectKey:
			m.cycleSearchKey()
			return nil
		}
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if value := m.search.Value(); value != before {
		return tea.Batch(cmd, m.scheduleSearch(m.toolbar.Input(value)))
	}
	return cmd
}

func (m *Model) leaveSearch() {
	m.mode = ModeBrowse
	m.search.Blur()
}

// cycleSearchKey moves the search to the next key in multi-key mode
func (m *Model) cycleSearchKey() {
	keys := m.toolbar.SearchKeys()
	if m.toolbar.Mode() != datatable.SearchMultiKey || len(keys) < 2 {
		return
	}
	i := slices.IndexFunc(keys, func(k datatable.SearchKey) bool { return k.Value == m.toolbar.ActiveKey() })
	next := keys[(i+1)%len(keys)]
	if err := m.toolbar.SelectKey(next.Value); err != nil {
		m.logger.Warn("select search key", "key", next.Value, "error", err)
		return
	}
	m.search.SetValue("")
	m.search.Placeholder = m.searchPlaceholder()
}

// handlePickerKeys handles the search key, facet, resource and view pickers
func (m *Model) handlePickerKeys(msg tea.KeyMsg) tea.Cmd {
	if m.picker == nil {
		m.closePicker()
		return nil
	}

	action, ok := m.keybinds.Match(keybinds.ContextPicker, msg.String())
	if ok {
		switch action {
		case keybinds.ActionNavigateUp:
			m.picker.MoveUp()
			return nil

		case keybinds.ActionNavigateDown:
			m.picker.MoveDown()
			return nil

		case keybinds.ActionPickerToggle:
			if m.picker.Multi() {
				if item, ok := m.picker.Toggle(); ok && m.mode == ModeFacet {
					m.toolbar.ToggleFacet(m.facetColumn, item.Value)
				}
				return nil
			}
			// Single pickers take space as query text

		case keybinds.ActionPickerSelect:
			return m.pickerSelect()

		case keybinds.ActionPickerClear:
			if m.mode == ModeFacet {
				m.toolbar.ClearFacet(m.facetColumn)
				m.picker.SetSelected(nil)
				return nil
			}
			m.pickerInput.SetValue("")
			m.picker.SetQuery("")
			return nil

		case keybinds.ActionPickerDelete:
			if m.mode != ModeViews {
				return nil
			}
			item, ok := m.picker.Current()
			if !ok {
				return nil
			}
			return m.deleteView(item.Value)

		case keybinds.ActionNextField:
			if m.mode == ModeFacet {
				m.nextFacet()
			}
			return nil

		case keybinds.ActionCloseModal:
			m.closePicker()
			return nil
		}
	}

	var cmd tea.Cmd
	m.pickerInput, cmd = m.pickerInput.Update(msg)
	m.picker.SetQuery(m.pickerInput.Value())
	return cmd
}

// pickerSelect confirms the highlighted item
func (m *Model) pickerSelect() tea.Cmd {
	item, ok := m.picker.Current()
	mode := m.mode
	if mode == ModeFacet {
		m.closePicker()
		return nil
	}
	if !ok {
		return nil
	}
	m.closePicker()

	switch mode {
	case ModeKeySelect:
		if err := m.toolbar.SelectKey(item.Value); err != nil {
			return m.setErrorMessage(err.Error())
		}
		m.search.SetValue("")
		return m.setStatusMessage(fmt.Sprintf("Searching %s", item.Label))

	case ModeResourcePicker:
		if item.Value == m.def.Name {
			return nil
		}
		if err := m.useResource(item.Value); err != nil {
			return m.setErrorMessage(err.Error())
		}
		m.fetchNeeded = true
		return m.setStatusMessage(fmt.Sprintf("Browsing %s", m.def.Title))

	case ModeViews:
		return m.loadView(item.Value)
	}
	return nil
}

func (m *Model) closePicker() {
	m.mode = ModeBrowse
	m.picker = nil
	m.facetColumn = ""
	m.pickerInput.Blur()
	m.pickerInput.SetValue("")
}

func (m *Model) openPicker(mode Mode, picker *PickerState) {
	m.mode = mode
	m.picker = picker
	m.pickerInput.SetValue("")
	m.pickerInput.Focus()
}

func (m *Model) openKeyPicker() {
	keys := m.toolbar.SearchKeys()
	items := make([]PickerItem, len(keys))
	for i, k := range keys {
		items[i] = PickerItem{Label: k.Label, Value: k.Value}
	}
	picker := NewPickerState("Search field", items, false)
	picker.SetCursorValue(m.toolbar.ActiveKey())
	m.openPicker(ModeKeySelect, picker)
}

func (m *Model) openResourcePicker() {
	names := m.resourceNames()
	items := make([]PickerItem, len(names))
	for i, name := range names {
		def := m.resources[name]
		items[i] = PickerItem{Label: def.Title, Value: name, Hint: def.Endpoint}
	}
	picker := NewPickerState("Resources", items, false)
	picker.SetCursorValue(m.def.Name)
	m.openPicker(ModeResourcePicker, picker)
}

// openFacetPicker lists the options of a facet. Counts come from the rows
// of the current page.
func (m *Model) openFacetPicker(columnID string) {
	facet, ok := m.toolbar.Config().Facet(columnID)
	if !ok {
		return
	}
	counts := m.table.FacetedUniqueValues(columnID)
	selected := m.toolbar.FacetSelection(columnID)

	items := make([]PickerItem, len(facet.Options))
	for i, o := range facet.Options {
		items[i] = PickerItem{
			Label:    o.Label,
			Value:    o.Value,
			Selected: slices.Contains(selected, o.Value),
		}
		if n := counts[o.Value]; n > 0 {
			items[i].Hint = fmt.Sprintf("%d", n)
		}
	}
	m.facetColumn = columnID
	m.openPicker(ModeFacet, NewPickerState(facet.Title, items, true))
}

func (m *Model) nextFacet() {
	facets := m.toolbar.Facets()
	if len(facets) < 2 {
		return
	}
	i := slices.IndexFunc(facets, func(f datatable.FacetFilter) bool { return f.ColumnID == m.facetColumn })
	m.openFacetPicker(facets[(i+1)%len(facets)].ColumnID)
}

// handleSaveViewKeys names the view being saved
func (m *Model) handleSaveViewKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextSearch, msg.String())
	if ok {
		switch action {
		case keybinds.ActionTextSubmit:
			name := strings.TrimSpace(m.viewName.Value())
			if name == "" {
				return m.setErrorMessage("View name is required")
			}
			m.mode = ModeBrowse
			m.viewName.Blur()
			return m.saveView(name)

		case keybinds.ActionTextCancel:
			m.mode = ModeBrowse
			m.viewName.Blur()
			return nil

		case keybinds.ActionTextClear:
			m.viewName.SetValue("")
			return nil
		}
	}

	var cmd tea.Cmd
	m.viewName, cmd = m.viewName.Update(msg)
	return cmd
}

// handleDetailKeys scrolls the record viewer
func (m *Model) handleDetailKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok, pending := m.keybinds.MatchSequence(keybinds.ContextDetail, msg.String())
	if pending || !ok {
		return nil
	}

	switch action {
	case keybinds.ActionNavigateUp:
		m.detailView.ScrollUp(1)
	case keybinds.ActionNavigateDown:
		m.detailView.ScrollDown(1)
	case keybinds.ActionHalfPageUp:
		m.detailView.HalfViewUp()
	case keybinds.ActionHalfPageDown:
		m.detailView.HalfViewDown()
	case keybinds.ActionGoToTop:
		m.detailView.GotoTop()
	case keybinds.ActionGoToBottom:
		m.detailView.GotoBottom()
	case keybinds.ActionCopy:
		return copyToClipboard(m.detailRaw)
	case keybinds.ActionCloseModal:
		m.mode = ModeBrowse
		m.detailID = ""
	}
	return nil
}

// handleHelpKeys scrolls the help viewer
func (m *Model) handleHelpKeys(msg tea.KeyMsg) tea.Cmd {
	action, ok := m.keybinds.Match(keybinds.ContextHelp, msg.String())
	if !ok {
		return nil
	}

	switch action {
	case keybinds.ActionNavigateUp:
		m.helpView.ScrollUp(1)
	case keybinds.ActionNavigateDown:
		m.helpView.ScrollDown(1)
	case keybinds.ActionCloseModal:
		m.mode = m.prevMode
		if m.mode == ModeHelp || m.mode == ModeLogin {
			m.mode = ModeBrowse
		}
	}
	return nil
}
