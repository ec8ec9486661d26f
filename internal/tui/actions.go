package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/views"
	"golang.org/x/sync/errgroup"
)

// login signs in and loads the first page on success
func (m *Model) login(email, password string) tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		_, err := client.Login(ctx, apiclient.Credentials{Email: email, Password: password})
		return loginResultMsg{err: err}
	}
}

func (m *Model) handleLoginResult(msg loginResultMsg) tea.Cmd {
	m.loading = false
	m.statusMsg = ""
	if msg.err != nil {
		m.logger.Info("sign in failed", "error", msg.err)
		return m.setErrorMessage(fmt.Sprintf("Sign in failed: %v", msg.err))
	}

	m.loginInputs[m.loginFocus].Blur()
	m.loginInputs[1].SetValue("")
	m.mode = ModeBrowse
	m.errorMsg = ""
	m.fullErrorMsg = ""
	return tea.Batch(m.setStatusMessage("Signed in"), m.loadInitial())
}

// loadInitial fetches the profile and the first page concurrently
func (m *Model) loadInitial() tea.Cmd {
	m.requestID++
	m.loading = true
	id := m.requestID
	ctx := m.ctx
	lister := m.lister
	def := m.def
	state := m.table.State()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		msg := initialLoadMsg{requestID: id}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			profile, err := lister.Profile(gctx)
			if err != nil {
				return fmt.Errorf("failed to load profile: %w", err)
			}
			msg.profile = profile
			return nil
		})
		g.Go(func() error {
			page, err := lister.List(gctx, def, state)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", def.Name, err)
			}
			msg.page = page
			return nil
		})
		msg.err = g.Wait()
		return msg
	}
}

// fetchPage requests the page for the current table state. Only the response
// to the latest request is applied.
func (m *Model) fetchPage() tea.Cmd {
	m.requestID++
	m.loading = true
	id := m.requestID
	ctx := m.ctx
	lister := m.lister
	def := m.def
	state := m.table.State()
	logger := m.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		start := time.Now()
		page, err := lister.List(ctx, def, state)
		if err != nil {
			return pageLoadedMsg{requestID: id, err: fmt.Errorf("failed to load %s: %w", def.Name, err)}
		}
		logger.Debug("page loaded",
			"resource", def.Name,
			"page", state.Pagination.PageIndex,
			"rows", len(page.Items),
			"total", page.Total,
			"duration", time.Since(start))
		return pageLoadedMsg{requestID: id, page: page}
	}
}

// scheduleSearch delivers ticket back after the debounce window
func (m *Model) scheduleSearch(ticket datatable.Ticket) tea.Cmd {
	return tea.Tick(m.debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{ticket: ticket}
	})
}

// recordID returns the identifier of a row, if it has one
func recordID(r resource.Record) (string, bool) {
	for _, key := range []string{"id", "_id"} {
		if v, ok := r[key]; ok && v != nil {
			if id := datatable.CellString(v); id != "" {
				return id, true
			}
		}
	}
	return "", false
}

// openDetail shows the row immediately and refreshes it from the API
// when the row carries an id
func (m *Model) openDetail(row resource.Record) tea.Cmd {
	m.mode = ModeDetail
	m.setDetail(row)
	m.detailView.GotoTop()

	id, ok := recordID(row)
	if !ok {
		m.detailID = ""
		return nil
	}
	m.detailID = id

	ctx := m.ctx
	lister := m.lister
	def := m.def
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		rec, err := lister.Get(ctx, def, id)
		return detailLoadedMsg{id: id, record: rec, err: err}
	}
}

// logout revokes the session; local state is cleared either way
func (m *Model) logout() tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return logoutMsg{err: client.Logout(ctx)}
	}
}

// waitForExpiry turns the client's session-expired reports into messages.
// It is re-armed after each one.
func (m *Model) waitForExpiry() tea.Cmd {
	if m.expired == nil {
		return nil
	}
	ch := m.expired
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case err, ok := <-ch:
			if !ok {
				return nil
			}
			return sessionExpiredMsg{err: err}
		case <-ctx.Done():
			return nil
		}
	}
}

// copyToClipboard copies the full record JSON
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if text == "" {
			return errorMsg("Nothing to copy")
		}
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}

// loadViews lists the saved views of the current resource
func (m *Model) loadViews() tea.Cmd {
	ctx := m.ctx
	mgr := m.views
	name := m.def.Name
	return func() tea.Msg {
		list, err := mgr.List(ctx, name)
		return viewsLoadedMsg{views: list, err: err}
	}
}

func (m *Model) handleViewsLoaded(msg viewsLoadedMsg) tea.Cmd {
	if msg.err != nil {
		return m.setErrorMessage(fmt.Sprintf("Failed to load views: %v", msg.err))
	}
	if len(msg.views) == 0 {
		return m.setStatusMessage(fmt.Sprintf("No saved views for %s", m.def.Title))
	}
	if m.mode != ModeBrowse {
		return nil
	}

	items := make([]PickerItem, len(msg.views))
	for i, v := range msg.views {
		items[i] = PickerItem{
			Label: v.Name,
			Value: v.Name,
			Hint:  v.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	m.openPicker(ModeViews, NewPickerState("Saved views", items, false))
	return nil
}

// loadView restores a saved table state and rebuilds the toolbar over it
func (m *Model) loadView(name string) tea.Cmd {
	state, err := m.views.Load(m.ctx, m.def.Name, name)
	if err != nil {
		if errors.Is(err, views.ErrNotFound) {
			return m.setErrorMessage(fmt.Sprintf("View %q no longer exists", name))
		}
		return m.setErrorMessage(fmt.Sprintf("Failed to load view: %v", err))
	}

	m.toolbar.Close()
	m.table.SetState(state)
	m.pageSize = m.table.Pagination().PageSize
	m.toolbar = datatable.NewToolbar(m.table, m.def.Table)
	m.search.SetValue(m.toolbar.RawText())
	m.fetchNeeded = true
	m.updateGrid()
	return m.setStatusMessage(fmt.Sprintf("Loaded view %q", name))
}

// saveView stores the current state under name, replacing a view with the
// same name
func (m *Model) saveView(name string) tea.Cmd {
	ctx := m.ctx
	mgr := m.views
	resourceName := m.def.Name
	state := m.table.State()
	return func() tea.Msg {
		created, err := mgr.Save(ctx, resourceName, name, state)
		return viewSavedMsg{name: name, created: created, err: err}
	}
}

func (m *Model) deleteView(name string) tea.Cmd {
	ctx := m.ctx
	mgr := m.views
	resourceName := m.def.Name
	return func() tea.Msg {
		return viewDeletedMsg{name: name, err: mgr.Delete(ctx, resourceName, name)}
	}
}
