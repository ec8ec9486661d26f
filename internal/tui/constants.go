package tui

import "time"

// UI layout constants
const (
	// Modal dimensions
	ModalWidthMargin  = 6 // m.width - 6
	ModalHeightMargin = 3 // m.height - 3
	PickerWidth       = 48
	PickerMaxRows     = 12

	// Browser chrome: title, toolbar, blank, footer, status bar
	BrowserChromeLines = 6
	MinTableHeight     = 3

	// Column width used when a definition does not set one
	DefaultColumnWidth = 16

	// Footer messages are truncated to this length
	StatusMaxLength = 100
)

const (
	// DefaultMessageTimeout clears status and error messages
	DefaultMessageTimeout = 5 * time.Second

	// requestTimeout bounds one API call issued by the UI
	requestTimeout = 30 * time.Second
)
