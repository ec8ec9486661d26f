package datatable

import (
	"fmt"
	"slices"
)

// FilterModel is the part of a table the toolbar drives
type FilterModel interface {
	ColumnFilterValue(columnID string) any
	SetColumnFilterValue(columnID string, value any)
	ColumnFilters() []ColumnFilter
	GlobalFilter() string
	SetGlobalFilter(value string)
	ResetFilters()
}

// Toolbar keeps a FilterModel in sync with search input and facet selections.
// Text reaches the model only through Commit with a live ticket.
type Toolbar struct {
	model     FilterModel
	cfg       Config
	mode      SearchMode
	activeKey string
	raw       string
	debounce  Debouncer
	ticketKey string
}

// NewToolbar binds cfg to model and seeds the search box from filters that
// are already applied
func NewToolbar(model FilterModel, cfg Config) *Toolbar {
	tb := &Toolbar{model: model, cfg: cfg, mode: cfg.Mode()}

	switch tb.mode {
	case SearchMultiKey:
		tb.activeKey = cfg.SearchKeys[0].Value
		for _, k := range cfg.SearchKeys {
			if TextValue(model.ColumnFilterValue(k.Value)) != "" {
				tb.activeKey = k.Value
				break
			}
		}
		tb.raw = TextValue(model.ColumnFilterValue(tb.activeKey))
	case SearchSingleKey:
		tb.activeKey = cfg.SearchKey
		tb.raw = TextValue(model.ColumnFilterValue(tb.activeKey))
	default:
		tb.raw = model.GlobalFilter()
	}
	return tb
}

// Config returns the toolbar configuration
func (tb *Toolbar) Config() Config {
	return tb.cfg
}

// Mode returns the search mode
func (tb *Toolbar) Mode() SearchMode {
	return tb.mode
}

// ActiveKey returns the column targeted by search ("" in global mode)
func (tb *Toolbar) ActiveKey() string {
	return tb.activeKey
}

// ActiveKeyLabel returns the label of the active key
func (tb *Toolbar) ActiveKeyLabel() string {
	for _, k := range tb.cfg.SearchKeys {
		if k.Value == tb.activeKey {
			return k.Label
		}
	}
	return tb.activeKey
}

// SearchKeys returns the selectable keys (multi-key mode)
func (tb *Toolbar) SearchKeys() []SearchKey {
	return tb.cfg.SearchKeys
}

// RawText returns the text as typed
func (tb *Toolbar) RawText() string {
	return tb.raw
}

// Pending reports whether typed text is waiting for its debounce
func (tb *Toolbar) Pending() bool {
	return tb.debounce.Pending()
}

// Input records typed text and restarts the debounce window.
// The returned ticket must be passed to Commit once the window elapses.
func (tb *Toolbar) Input(text string) Ticket {
	tb.raw = text
	tb.ticketKey = tb.activeKey
	return tb.debounce.Schedule()
}

// Commit applies the typed text if ticket is still the latest one and was
// issued for the current key. It reports whether anything was applied.
func (tb *Toolbar) Commit(ticket Ticket) bool {
	if tb.ticketKey != tb.activeKey || !tb.debounce.Fire(ticket) {
		return false
	}
	tb.apply(tb.raw)
	return true
}

// Flush applies pending text immediately (Enter in the search box)
func (tb *Toolbar) Flush() bool {
	if !tb.debounce.Pending() {
		return false
	}
	tb.debounce.Cancel()
	tb.apply(tb.raw)
	return true
}

func (tb *Toolbar) apply(text string) {
	if tb.mode == SearchGlobal {
		tb.model.SetGlobalFilter(text)
		return
	}
	tb.model.SetColumnFilterValue(tb.activeKey, text)
}

// SelectKey switches the search target. Every other key's filter is cleared,
// the typed text is reset and a pending debounce is dropped; the new key is
// not filtered until fresh input is committed.
func (tb *Toolbar) SelectKey(value string) error {
	if tb.mode != SearchMultiKey {
		return fmt.Errorf("search key selection needs searchKeys")
	}
	if !slices.ContainsFunc(tb.cfg.SearchKeys, func(k SearchKey) bool { return k.Value == value }) {
		return fmt.Errorf("unknown search key %q", value)
	}
	if value == tb.activeKey {
		return nil
	}

	tb.debounce.Cancel()
	for _, k := range tb.cfg.SearchKeys {
		if k.Value != value && tb.model.ColumnFilterValue(k.Value) != nil {
			tb.model.SetColumnFilterValue(k.Value, nil)
		}
	}
	tb.raw = ""
	tb.activeKey = value
	return nil
}

// Facets returns the configured facet filters
func (tb *Toolbar) Facets() []FacetFilter {
	return tb.cfg.Filters
}

// FacetSelection returns the selected values of a facet column
func (tb *Toolbar) FacetSelection(columnID string) []string {
	return SetValue(tb.model.ColumnFilterValue(columnID))
}

// ToggleFacet adds or removes value from the facet selection of columnID
func (tb *Toolbar) ToggleFacet(columnID, value string) {
	selected := tb.FacetSelection(columnID)
	if i := slices.Index(selected, value); i >= 0 {
		selected = slices.Delete(selected, i, i+1)
	} else {
		selected = append(selected, value)
	}
	tb.SetFacet(columnID, selected)
}

// SetFacet replaces the selection of columnID; empty means no constraint
func (tb *Toolbar) SetFacet(columnID string, values []string) {
	if len(values) == 0 {
		tb.model.SetColumnFilterValue(columnID, nil)
		return
	}
	tb.model.SetColumnFilterValue(columnID, slices.Clone(values))
}

// ClearFacet removes the selection of columnID
func (tb *Toolbar) ClearFacet(columnID string) {
	tb.model.SetColumnFilterValue(columnID, nil)
}

// CanReset reports whether the reset control should be shown
func (tb *Toolbar) CanReset() bool {
	return len(tb.model.ColumnFilters()) > 0 || tb.model.GlobalFilter() != ""
}

// Reset clears every filter, the typed text and any pending debounce
func (tb *Toolbar) Reset() {
	tb.debounce.Cancel()
	tb.raw = ""
	tb.model.ResetFilters()
}

// Close drops a pending debounce; call when the table goes away
func (tb *Toolbar) Close() {
	tb.debounce.Cancel()
}
