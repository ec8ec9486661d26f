/*
Package tui implements the terminal table browser for lmscli.

# Architecture

The TUI follows the Bubble Tea Model-Update-View pattern:
  - model.go: Mode enum, Model state, message types and the Update loop
  - keys.go: key routing per mode through the keybinds.Registry
  - actions.go: commands with side effects (API calls, clipboard, saved views)
  - render.go and modals.go: views for the browser and its overlays

# Table State

The browser holds a datatable.Table over resource records with server-side
pagination, filtering and sorting. Every table state change marks the model
for a fetch; fetches carry a request ID and responses with an older ID are
dropped, so only the latest query renders.

Search input reaches the table through datatable.Toolbar. Each keystroke
schedules a debounce ticket; a tea.Tick delivers the ticket back after the
quiescence window and the toolbar commits it only if it is still the latest.

# Session

The API client refreshes expired access tokens on its own. When the refresh
itself fails the client reports it on a channel which the model turns into a
sessionExpiredMsg, returning to the sign-in form.

# Threading Model

Update runs on Bubble Tea's event loop. API calls run inside tea.Cmd
functions; the initial profile and first page are fetched concurrently with
an errgroup.
*/
package tui
