package keybinds

// Action represents a user action that can be triggered by a keybinding
type Action string

// Context represents the screen in which keybindings are active
type Context string

const (
	ContextGlobal Context = "global" // Available everywhere
	ContextTable  Context = "table"  // Table browser
	ContextSearch Context = "search" // Search input focused
	ContextPicker Context = "picker" // Search key, facet, resource and view pickers
	ContextDetail Context = "detail" // Record detail viewer
	ContextLogin  Context = "login"  // Sign-in form
	ContextHelp   Context = "help"   // Help viewer
)

// Contexts lists every context in display order
var Contexts = []Context{
	ContextGlobal,
	ContextTable,
	ContextSearch,
	ContextPicker,
	ContextDetail,
	ContextLogin,
	ContextHelp,
}

const (
	// Global actions
	ActionQuit      Action = "quit"
	ActionQuitForce Action = "quit_force"
	ActionOpenHelp  Action = "open_help"

	// Navigation
	ActionNavigateUp   Action = "navigate_up"
	ActionNavigateDown Action = "navigate_down"
	ActionHalfPageUp   Action = "half_page_up"
	ActionHalfPageDown Action = "half_page_down"
	ActionGoToTop      Action = "go_to_top"
	ActionGoToBottom   Action = "go_to_bottom"
	ActionPrevColumn   Action = "prev_column"
	ActionNextColumn   Action = "next_column"

	// Pagination
	ActionFirstPage      Action = "first_page"
	ActionPrevPage       Action = "prev_page"
	ActionNextPage       Action = "next_page"
	ActionLastPage       Action = "last_page"
	ActionCyclePageSize  Action = "cycle_page_size"
	ActionToggleSort     Action = "toggle_sort"
	ActionRefresh        Action = "refresh"
	ActionOpenDetail     Action = "open_detail"
	ActionSwitchResource Action = "switch_resource"
	ActionLogout         Action = "logout"

	// Toolbar
	ActionOpenSearch   Action = "open_search"
	ActionSelectKey    Action = "select_search_key"
	ActionOpenFacet    Action = "open_facet"
	ActionResetFilters Action = "reset_filters"

	// Saved views
	ActionOpenViews Action = "open_views"
	ActionSaveView  Action = "save_view"

	// Text input
	ActionTextSubmit Action = "text_submit"
	ActionTextCancel Action = "text_cancel"
	ActionTextClear  Action = "text_clear"

	// Pickers
	ActionPickerToggle Action = "picker_toggle"
	ActionPickerSelect Action = "picker_select"
	ActionPickerClear  Action = "picker_clear"
	ActionPickerDelete Action = "picker_delete"

	// Detail viewer
	ActionCopy       Action = "copy"
	ActionCloseModal Action = "close_modal"

	// Login form
	ActionNextField Action = "next_field"
	ActionPrevField Action = "prev_field"
)

// descriptions are shown in the help viewer
var descriptions = map[Action]string{
	ActionQuit:           "Quit",
	ActionQuitForce:      "Force quit",
	ActionOpenHelp:       "Show help",
	ActionNavigateUp:     "Move up",
	ActionNavigateDown:   "Move down",
	ActionHalfPageUp:     "Scroll half a page up",
	ActionHalfPageDown:   "Scroll half a page down",
	ActionGoToTop:        "Go to top",
	ActionGoToBottom:     "Go to bottom",
	ActionPrevColumn:     "Focus previous column",
	ActionNextColumn:     "Focus next column",
	ActionFirstPage:      "First page",
	ActionPrevPage:       "Previous page",
	ActionNextPage:       "Next page",
	ActionLastPage:       "Last page",
	ActionCyclePageSize:  "Change rows per page",
	ActionToggleSort:     "Sort focused column (asc, desc, none)",
	ActionRefresh:        "Reload current page",
	ActionOpenDetail:     "Open record",
	ActionSwitchResource: "Switch resource",
	ActionLogout:         "Sign out",
	ActionOpenSearch:     "Search",
	ActionSelectKey:      "Choose search field",
	ActionOpenFacet:      "Faceted filters",
	ActionResetFilters:   "Reset filters",
	ActionOpenViews:      "Saved views",
	ActionSaveView:       "Save current view",
	ActionTextSubmit:     "Apply",
	ActionTextCancel:     "Cancel",
	ActionTextClear:      "Clear input",
	ActionPickerToggle:   "Toggle option",
	ActionPickerSelect:   "Select",
	ActionPickerClear:    "Clear selection",
	ActionPickerDelete:   "Delete item",
	ActionCopy:           "Copy to clipboard",
	ActionCloseModal:     "Close",
	ActionNextField:      "Next field or facet",
	ActionPrevField:      "Previous field",
}

// Describe returns the help text of action
func Describe(action Action) string {
	if d, ok := descriptions[action]; ok {
		return d
	}
	return string(action)
}

// IsKnown reports whether action is handled by the application
func IsKnown(action Action) bool {
	_, ok := descriptions[action]
	return ok
}
