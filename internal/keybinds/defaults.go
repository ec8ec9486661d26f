package keybinds

// NewDefaultRegistry creates a registry with all default keybindings
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	registerGlobalBindings(r)
	registerTableBindings(r)
	registerSearchBindings(r)
	registerPickerBindings(r)
	registerDetailBindings(r)
	registerLoginBindings(r)
	registerHelpBindings(r)

	return r
}

func registerGlobalBindings(r *Registry) {
	r.Register(ContextGlobal, "ctrl+c", ActionQuitForce)
}

func registerTableBindings(r *Registry) {
	r.Register(ContextTable, "q", ActionQuit)
	r.Register(ContextTable, "?", ActionOpenHelp)

	r.RegisterMultiple(ContextTable, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextTable, []string{"down", "j"}, ActionNavigateDown)
	r.Register(ContextTable, "gg", ActionGoToTop)
	r.Register(ContextTable, "G", ActionGoToBottom)
	r.RegisterMultiple(ContextTable, []string{"[", "shift+left"}, ActionPrevColumn)
	r.RegisterMultiple(ContextTable, []string{"]", "shift+right"}, ActionNextColumn)

	r.RegisterMultiple(ContextTable, []string{"home", "H"}, ActionFirstPage)
	r.RegisterMultiple(ContextTable, []string{"left", "h", "pgup"}, ActionPrevPage)
	r.RegisterMultiple(ContextTable, []string{"right", "l", "pgdown"}, ActionNextPage)
	r.RegisterMultiple(ContextTable, []string{"end", "L"}, ActionLastPage)
	r.Register(ContextTable, "z", ActionCyclePageSize)
	r.Register(ContextTable, "s", ActionToggleSort)
	r.Register(ContextTable, "r", ActionRefresh)
	r.Register(ContextTable, "enter", ActionOpenDetail)
	r.Register(ContextTable, "R", ActionSwitchResource)
	r.Register(ContextTable, "O", ActionLogout)

	r.Register(ContextTable, "/", ActionOpenSearch)
	r.Register(ContextTable, "tab", ActionSelectKey)
	r.Register(ContextTable, "f", ActionOpenFacet)
	r.Register(ContextTable, "x", ActionResetFilters)

	r.Register(ContextTable, "v", ActionOpenViews)
	r.Register(ContextTable, "V", ActionSaveView)
}

func registerSearchBindings(r *Registry) {
	r.Register(ContextSearch, "enter", ActionTextSubmit)
	r.Register(ContextSearch, "esc", ActionTextCancel)
	r.Register(ContextSearch, "ctrl+u", ActionTextClear)
	r.Register(ContextSearch, "tab", ActionSelectKey)
}

func registerPickerBindings(r *Registry) {
	r.RegisterMultiple(ContextPicker, []string{"up", "ctrl+p"}, ActionNavigateUp)
	r.RegisterMultiple(ContextPicker, []string{"down", "ctrl+n"}, ActionNavigateDown)
	r.Register(ContextPicker, " ", ActionPickerToggle)
	r.Register(ContextPicker, "enter", ActionPickerSelect)
	r.Register(ContextPicker, "ctrl+x", ActionPickerClear)
	r.Register(ContextPicker, "ctrl+d", ActionPickerDelete)
	r.Register(ContextPicker, "tab", ActionNextField)
	r.Register(ContextPicker, "esc", ActionCloseModal)
}

func registerDetailBindings(r *Registry) {
	r.RegisterMultiple(ContextDetail, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextDetail, []string{"down", "j"}, ActionNavigateDown)
	r.Register(ContextDetail, "ctrl+u", ActionHalfPageUp)
	r.Register(ContextDetail, "ctrl+d", ActionHalfPageDown)
	r.Register(ContextDetail, "gg", ActionGoToTop)
	r.Register(ContextDetail, "G", ActionGoToBottom)
	r.Register(ContextDetail, "c", ActionCopy)
	r.RegisterMultiple(ContextDetail, []string{"esc", "q"}, ActionCloseModal)
}

func registerLoginBindings(r *Registry) {
	r.Register(ContextLogin, "enter", ActionTextSubmit)
	r.RegisterMultiple(ContextLogin, []string{"tab", "down"}, ActionNextField)
	r.RegisterMultiple(ContextLogin, []string{"shift+tab", "up"}, ActionPrevField)
	r.Register(ContextLogin, "esc", ActionQuit)
}

func registerHelpBindings(r *Registry) {
	r.RegisterMultiple(ContextHelp, []string{"up", "k"}, ActionNavigateUp)
	r.RegisterMultiple(ContextHelp, []string{"down", "j"}, ActionNavigateDown)
	r.RegisterMultiple(ContextHelp, []string{"esc", "?", "q"}, ActionCloseModal)
}
