package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/keybinds"
)

// Adaptive color definitions for light/dark terminal support
var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#006400", Dark: "#00ff00"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#8b0000", Dark: "#ff0000"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffff00"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#00008b", Dark: "#5f87ff"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"}
)

// Style definitions
var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	styleSelected = lipgloss.NewStyle().
			Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"})

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorGreen)

	styleError = lipgloss.NewStyle().
			Foreground(colorRed)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorYellow)

	styleSubtle = lipgloss.NewStyle().
			Foreground(colorGray)

	styleChip = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true).
			BorderForeground(colorGray).
			Padding(0, 1)
)

func gridStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
		Background(lipgloss.AdaptiveColor{Light: "#d3d3d3", Dark: "#3a3a3a"}).
		Bold(false)
	return s
}

// renderBrowser renders the resource table with its toolbar and footer
func (m *Model) renderBrowser() string {
	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")
	b.WriteString(m.renderToolbar())
	b.WriteString("\n")
	if len(m.rows) == 0 && !m.loading {
		b.WriteString(styleSubtle.Render(m.emptyMessage()))
		b.WriteString(strings.Repeat("\n", max(m.grid.Height()-1, 1)))
	} else {
		b.WriteString(m.grid.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderPagination())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderTitle() string {
	title := styleTitle.Render(m.def.Title)
	if m.loading {
		title += " " + styleWarning.Render("loading...")
	}
	return title
}

func (m *Model) emptyMessage() string {
	if m.toolbar.CanReset() {
		return "No results match the current filters."
	}
	return "No results."
}

// renderToolbar shows the search box, facet chips and the reset control
func (m *Model) renderToolbar() string {
	var parts []string

	var label string
	switch m.toolbar.Mode() {
	case datatable.SearchMultiKey:
		label = fmt.Sprintf("Search [%s]", m.toolbar.ActiveKeyLabel())
	case datatable.SearchSingleKey:
		label = fmt.Sprintf("Search %s", m.toolbar.ActiveKeyLabel())
	default:
		label = "Search"
	}

	if m.mode == ModeSearch {
		parts = append(parts, label+": "+m.search.View())
	} else {
		text := m.toolbar.RawText()
		if text == "" {
			text = styleSubtle.Render(m.searchPlaceholder())
		}
		search := label + ": " + text
		if m.toolbar.Pending() {
			search += styleWarning.Render(" …")
		}
		parts = append(parts, search)
	}

	for _, f := range m.toolbar.Facets() {
		parts = append(parts, m.renderFacetChip(f))
	}

	if m.toolbar.CanReset() {
		key := m.keybinds.KeyString(keybinds.ContextTable, keybinds.ActionResetFilters)
		parts = append(parts, styleWarning.Render(fmt.Sprintf("Reset (%s)", key)))
	}

	return strings.Join(parts, "  ")
}

// renderFacetChip shows a facet title and its selection. More than two
// selected values collapse into a count.
func (m *Model) renderFacetChip(f datatable.FacetFilter) string {
	selected := m.toolbar.FacetSelection(f.ColumnID)
	if len(selected) == 0 {
		return styleChip.Render("+ " + f.Title)
	}

	var values string
	if len(selected) > 2 {
		values = fmt.Sprintf("%d selected", len(selected))
	} else {
		labels := make([]string, len(selected))
		for i, v := range selected {
			labels[i] = f.Label(v)
		}
		values = strings.Join(labels, ", ")
	}
	return styleChip.BorderForeground(colorCyan).Render(f.Title + ": " + styleSuccess.Render(values))
}

// renderPagination shows page size, position and navigation controls
func (m *Model) renderPagination() string {
	p := m.table.Pagination()
	pageCount := m.table.PageCount()
	page := p.PageIndex + 1
	if pageCount == 0 {
		page = 0
	}

	arrow := func(symbol string, enabled bool) string {
		if enabled {
			return symbol
		}
		return styleSubtle.Render(symbol)
	}
	prev := m.table.CanPreviousPage()
	next := m.table.CanNextPage()
	controls := strings.Join([]string{
		arrow("«", prev),
		arrow("‹", prev),
		arrow("›", next),
		arrow("»", next),
	}, " ")

	left := fmt.Sprintf("%d row(s)", m.table.RowCount())
	right := fmt.Sprintf("Rows per page: %d   Page %d of %d   %s", p.PageSize, page, pageCount, controls)

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return styleSubtle.Render(left) + strings.Repeat(" ", spacing) + right
}

// renderStatusBar shows the signed-in user and the last message
func (m *Model) renderStatusBar() string {
	left := m.def.Name
	if m.profile != nil {
		left = fmt.Sprintf("%s @ %s", m.profile.DisplayName(), m.def.Name)
	}
	if m.version != "" {
		left += styleSubtle.Render(" v" + m.version)
	}

	right := ""
	if m.errorMsg != "" {
		right = styleError.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		right = styleSuccess.Render(m.statusMsg)
	} else {
		right = styleSubtle.Render(fmt.Sprintf("%s: search | %s: help | %s: quit",
			m.keybinds.KeyString(keybinds.ContextTable, keybinds.ActionOpenSearch),
			m.keybinds.KeyString(keybinds.ContextTable, keybinds.ActionOpenHelp),
			m.keybinds.KeyString(keybinds.ContextTable, keybinds.ActionQuit)))
	}

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", spacing) + right
}

// renderLogin renders the sign-in form
func (m *Model) renderLogin() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Sign in"))
	b.WriteString("\n")
	b.WriteString(styleSubtle.Render(m.client.BaseURL()))
	b.WriteString("\n\n")
	for _, input := range m.loginInputs {
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(styleWarning.Render("Signing in..."))
	case m.errorMsg != "":
		b.WriteString(styleError.Render(m.errorMsg))
	default:
		b.WriteString(styleSubtle.Render("tab: next field | enter: sign in | esc: quit"))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
