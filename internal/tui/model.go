package tui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/keybinds"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/session"
	"github.com/studiowebux/lmscli/internal/views"
)

// Mode represents the current TUI mode
type Mode int

const (
	ModeLogin Mode = iota
	ModeBrowse
	ModeSearch
	ModeKeySelect
	ModeFacet
	ModeDetail
	ModeHelp
	ModeResourcePicker
	ModeViews
	ModeSaveView
)

// Options wires the model to the API and local state
type Options struct {
	Client    *apiclient.Client
	Session   *session.Manager
	Views     *views.Manager // nil disables saved views
	Resources map[string]resource.Definition
	Resource  string // initial resource
	Keybinds  *keybinds.Registry
	PageSize  int
	Debounce  time.Duration

	// Expired receives refresh failures reported by the client
	Expired        <-chan error
	MessageTimeout time.Duration
	Logger         *slog.Logger
	Version        string
}

// Model represents the TUI state
type Model struct {
	// Core state
	client   *apiclient.Client
	session  *session.Manager
	lister   *resource.Lister
	views    *views.Manager
	keybinds *keybinds.Registry
	logger   *slog.Logger
	expired  <-chan error
	version  string
	mode     Mode
	prevMode Mode // restored when help closes

	ctx    context.Context
	cancel context.CancelFunc

	// Resource and table state
	resources   map[string]resource.Definition
	def         resource.Definition
	table       *datatable.Table[resource.Record]
	toolbar     *datatable.Toolbar
	grid        table.Model
	rows        []resource.Record // rows behind the grid, in display order
	colIndex    int               // focused column for sorting
	pageSize    int
	debounce    time.Duration
	requestID   uint64
	loading     bool
	fetchNeeded bool
	profile     *apiclient.Profile

	// Inputs
	loginInputs []textinput.Model // email, password
	loginFocus  int
	search      textinput.Model
	pickerInput textinput.Model
	viewName    textinput.Model

	// Pickers
	picker      *PickerState
	facetColumn string

	// Detail and help viewers
	detailView viewport.Model
	detailRaw  string
	detailID   string
	helpView   viewport.Model

	// UI state
	width          int
	height         int
	statusMsg      string
	errorMsg       string
	fullStatusMsg  string
	fullErrorMsg   string
	messageTimeout time.Duration
}

// New creates the model and its first resource table
func New(opts Options) (*Model, error) {
	if opts.Client == nil || opts.Session == nil {
		return nil, fmt.Errorf("client and session are required")
	}
	if len(opts.Resources) == 0 {
		return nil, fmt.Errorf("no resources configured")
	}
	if opts.Keybinds == nil {
		opts.Keybinds = keybinds.NewDefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = datatable.DefaultDebounce
	}
	if opts.MessageTimeout <= 0 {
		opts.MessageTimeout = DefaultMessageTimeout
	}
	if opts.PageSize <= 0 {
		opts.PageSize = datatable.PageSizeOptions[0]
	}
	if opts.Resource == "" {
		opts.Resource = resource.Names(opts.Resources)[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		client:         opts.Client,
		session:        opts.Session,
		lister:         resource.NewLister(opts.Client),
		views:          opts.Views,
		keybinds:       opts.Keybinds,
		logger:         opts.Logger,
		expired:        opts.Expired,
		version:        opts.Version,
		ctx:            ctx,
		cancel:         cancel,
		resources:      opts.Resources,
		pageSize:       opts.PageSize,
		debounce:       opts.Debounce,
		messageTimeout: opts.MessageTimeout,
		grid:           table.New(table.WithFocused(true)),
		detailView:     viewport.New(80, 20),
		helpView:       viewport.New(80, 20),
	}
	m.grid.SetStyles(gridStyles())
	m.initInputs()

	if err := m.useResource(opts.Resource); err != nil {
		cancel()
		return nil, err
	}

	if opts.Session.IsAuthenticated() {
		m.mode = ModeBrowse
	} else {
		m.mode = ModeLogin
		m.loginInputs[0].Focus()
	}
	return m, nil
}

func (m *Model) initInputs() {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m.loginInputs = []textinput.Model{email, password}

	m.search = textinput.New()
	m.search.Prompt = "/ "

	m.pickerInput = textinput.New()
	m.pickerInput.Prompt = "> "
	m.pickerInput.Placeholder = "filter"

	m.viewName = textinput.New()
	m.viewName.Prompt = "Name: "
	m.viewName.CharLimit = 64
}

// useResource replaces the table with one for the named resource
func (m *Model) useResource(name string) error {
	def, ok := m.resources[name]
	if !ok {
		return fmt.Errorf("unknown resource %q", name)
	}

	tbl, err := def.NewTable(m.pageSize, m.onStateChange)
	if err != nil {
		return fmt.Errorf("resource %s: %w", name, err)
	}

	if m.toolbar != nil {
		m.toolbar.Close()
	}
	m.def = def
	m.table = tbl
	m.toolbar = datatable.NewToolbar(tbl, def.Table)
	m.colIndex = 0
	m.rows = nil
	m.search.SetValue("")
	m.requestID++ // drop responses for the previous resource
	m.updateGrid()
	return nil
}

// onStateChange runs synchronously inside table mutations
func (m *Model) onStateChange(datatable.State) {
	m.fetchNeeded = true
}

// Init starts the first load or waits for sign-in
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForExpiry()}
	if m.mode == ModeBrowse {
		cmds = append(cmds, m.loadInitial())
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Cleanup cancels in-flight requests and pending debounces
func (m *Model) Cleanup() {
	if m.toolbar != nil {
		m.toolbar.Close()
	}
	m.cancel()
}

// Update handles messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateViewport()

	case searchDebounceMsg:
		if m.toolbar.Commit(msg.ticket) {
			m.logger.Debug("search committed", "resource", m.def.Name, "text", m.toolbar.RawText())
		}

	case loginResultMsg:
		cmds = append(cmds, m.handleLoginResult(msg))

	case initialLoadMsg:
		if msg.requestID != m.requestID {
			break
		}
		m.loading = false
		if msg.err != nil {
			cmds = append(cmds, m.handleLoadError(msg.err))
			break
		}
		profile := msg.profile
		m.profile = &profile
		m.applyPage(msg.page)

	case pageLoadedMsg:
		if msg.requestID != m.requestID {
			m.logger.Debug("dropping stale page", "request_id", msg.requestID, "latest", m.requestID)
			break
		}
		m.loading = false
		if msg.err != nil {
			cmds = append(cmds, m.handleLoadError(msg.err))
			break
		}
		m.applyPage(msg.page)

	case detailLoadedMsg:
		if m.mode != ModeDetail || msg.id != m.detailID {
			break
		}
		if msg.err != nil {
			cmds = append(cmds, m.setErrorMessage(fmt.Sprintf("Showing row data: %v", msg.err)))
			break
		}
		m.setDetail(msg.record)

	case viewsLoadedMsg:
		cmds = append(cmds, m.handleViewsLoaded(msg))

	case viewSavedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setErrorMessage(fmt.Sprintf("Failed to save view: %v", msg.err)))
			break
		}
		verb := "Updated"
		if msg.created {
			verb = "Saved"
		}
		cmds = append(cmds, m.setStatusMessage(fmt.Sprintf("%s view %q", verb, msg.name)))

	case viewDeletedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setErrorMessage(fmt.Sprintf("Failed to delete view: %v", msg.err)))
			break
		}
		if m.picker != nil && m.mode == ModeViews {
			m.picker.Remove(msg.name)
		}
		cmds = append(cmds, m.setStatusMessage(fmt.Sprintf("Deleted view %q", msg.name)))

	case copiedMsg:
		if msg.err != nil {
			cmds = append(cmds, m.setErrorMessage(fmt.Sprintf("Failed to copy to clipboard: %v", msg.err)))
			break
		}
		cmds = append(cmds, m.setStatusMessage("Record copied to clipboard"))

	case logoutMsg:
		m.signOut()
		if msg.err != nil {
			cmds = append(cmds, m.setErrorMessage(fmt.Sprintf("Signed out locally: %v", msg.err)))
		} else {
			cmds = append(cmds, m.setStatusMessage("Signed out"))
		}

	case sessionExpiredMsg:
		cmds = append(cmds, m.handleSessionExpired(msg.err), m.waitForExpiry())

	case errorMsg:
		cmds = append(cmds, m.setErrorMessage(string(msg)))

	case clearStatusMsg:
		m.statusMsg = ""
		m.fullStatusMsg = ""

	case clearErrorMsg:
		m.errorMsg = ""
		m.fullErrorMsg = ""
	}

	if m.fetchNeeded {
		m.fetchNeeded = false
		if m.mode != ModeLogin {
			cmds = append(cmds, m.fetchPage())
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the current mode
func (m *Model) View() string {
	if m.width == 0 {
		return ""
	}

	switch m.mode {
	case ModeLogin:
		return m.renderLogin()
	case ModeDetail:
		return m.renderDetail()
	case ModeHelp:
		return m.renderHelp()
	case ModeKeySelect, ModeFacet, ModeResourcePicker, ModeViews:
		return m.renderPicker()
	case ModeSaveView:
		return m.renderSaveView()
	default:
		return m.renderBrowser()
	}
}

// applyPage shows a fetched page, stepping back when the page no longer exists
func (m *Model) applyPage(page resource.Page) {
	m.table.SetData(page.Items)
	m.table.SetRowCount(page.Total)

	p := m.table.Pagination()
	if p.PageIndex > 0 && p.PageIndex >= m.table.PageCount() {
		m.table.LastPage() // triggers a new fetch
	}
	m.updateGrid()
}

func (m *Model) handleLoadError(err error) tea.Cmd {
	if apiclient.IsSessionExpired(err) {
		return m.handleSessionExpired(err)
	}
	return m.setErrorMessage(err.Error())
}

// handleSessionExpired returns to the sign-in form
func (m *Model) handleSessionExpired(err error) tea.Cmd {
	if m.mode == ModeLogin {
		return nil
	}
	m.logger.Warn("session expired", "error", err)
	m.resetToLogin()
	return m.setErrorMessage("Session expired, please sign in again")
}

func (m *Model) signOut() {
	m.resetToLogin()
}

func (m *Model) resetToLogin() {
	m.mode = ModeLogin
	m.profile = nil
	m.loading = false
	m.requestID++
	m.toolbar.Close()
	m.search.Blur()
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	m.loginInputs[1].SetValue("")
	m.loginFocus = 0
	m.loginInputs[0].Focus()
}

// updateGrid rebuilds the bubbles table from the datatable page
func (m *Model) updateGrid() {
	m.rows = m.table.Rows()

	cols := m.table.Columns()
	gridCols := make([]table.Column, len(cols))
	for i, c := range cols {
		width := DefaultColumnWidth
		if def, ok := m.def.Column(c.ID); ok && def.Width > 0 {
			width = def.Width
		}
		title := c.Header
		switch m.table.SortDirection(c.ID) {
		case "asc":
			title += " ↑"
		case "desc":
			title += " ↓"
		}
		if i == m.colIndex {
			title = "[" + title + "]"
		}
		gridCols[i] = table.Column{Title: title, Width: width}
	}

	gridRows := make([]table.Row, len(m.rows))
	for i, row := range m.rows {
		r := make(table.Row, len(cols))
		for j, c := range cols {
			r[j] = datatable.CellString(c.Accessor(row))
		}
		gridRows[i] = r
	}

	// Rows must be cleared before columns shrink or the table indexes past them
	m.grid.SetRows(nil)
	m.grid.SetColumns(gridCols)
	m.grid.SetRows(gridRows)
	if cursor := m.grid.Cursor(); cursor >= len(gridRows) {
		m.grid.SetCursor(max(len(gridRows)-1, 0))
	}
}

// selectedRow returns the record under the grid cursor
func (m *Model) selectedRow() (resource.Record, bool) {
	i := m.grid.Cursor()
	if i < 0 || i >= len(m.rows) {
		return nil, false
	}
	return m.rows[i], true
}

// focusedColumn returns the column used by sort toggling
func (m *Model) focusedColumn() (datatable.Column[resource.Record], bool) {
	cols := m.table.Columns()
	if m.colIndex < 0 || m.colIndex >= len(cols) {
		return datatable.Column[resource.Record]{}, false
	}
	return cols[m.colIndex], true
}

// updateViewport resizes components after a window change
func (m *Model) updateViewport() {
	m.grid.SetWidth(m.width - 2)
	m.grid.SetHeight(max(m.height-BrowserChromeLines, MinTableHeight))

	m.detailView.Width = m.width - ModalWidthMargin - 4
	m.detailView.Height = max(m.height-ModalHeightMargin-6, 1)
	m.helpView.Width = m.width - ModalWidthMargin - 4
	m.helpView.Height = max(m.height-ModalHeightMargin-6, 1)
	m.updateHelpView()

	inputWidth := min(m.width-20, 60)
	for i := range m.loginInputs {
		m.loginInputs[i].Width = inputWidth
	}
	m.search.Width = max(m.width-30, 10)
}

// resourceNames returns the configured resource names
func (m *Model) resourceNames() []string {
	names := resource.Names(m.resources)
	slices.Sort(names)
	return names
}

// Message types
type searchDebounceMsg struct {
	ticket datatable.Ticket
}

type loginResultMsg struct {
	err error
}

type initialLoadMsg struct {
	requestID uint64
	profile   apiclient.Profile
	page      resource.Page
	err       error
}

type pageLoadedMsg struct {
	requestID uint64
	page      resource.Page
	err       error
}

type detailLoadedMsg struct {
	id     string
	record resource.Record
	err    error
}

type viewsLoadedMsg struct {
	views []views.View
	err   error
}

type viewSavedMsg struct {
	name    string
	created bool
	err     error
}

type viewDeletedMsg struct {
	name string
	err  error
}

type copiedMsg struct {
	err error
}

type logoutMsg struct {
	err error
}

type sessionExpiredMsg struct {
	err error
}

type clearStatusMsg struct{}

type clearErrorMsg struct{}

type errorMsg string

// setStatusMessage shows msg in the footer and clears it after the timeout
func (m *Model) setStatusMessage(msg string) tea.Cmd {
	m.fullStatusMsg = msg
	m.statusMsg = truncate(msg, StatusMaxLength)
	m.errorMsg = ""
	m.fullErrorMsg = ""
	return tea.Tick(m.messageTimeout, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

func (m *Model) setErrorMessage(msg string) tea.Cmd {
	m.fullErrorMsg = msg
	m.errorMsg = truncate(msg, StatusMaxLength)
	return tea.Tick(m.messageTimeout, func(time.Time) tea.Msg {
		return clearErrorMsg{}
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
