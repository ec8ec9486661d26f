package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/lmscli/internal/keybinds"
)

// renderModal centers content in a bordered box over the screen
func (m *Model) renderModal(width int, content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Width(width).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// renderPicker renders the active picker
func (m *Model) renderPicker() string {
	if m.picker == nil {
		return m.renderBrowser()
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(m.picker.Title()))
	b.WriteString("\n\n")
	b.WriteString(m.pickerInput.View())
	b.WriteString("\n\n")

	items := m.picker.Visible()
	cursor := m.picker.Cursor()
	if len(items) == 0 {
		b.WriteString(styleSubtle.Render("No matches"))
		b.WriteString("\n")
	}

	// Keep the cursor inside the visible window
	start := 0
	if cursor >= PickerMaxRows {
		start = cursor - PickerMaxRows + 1
	}
	end := min(start+PickerMaxRows, len(items))

	for i := start; i < end; i++ {
		item := items[i]
		line := item.Label
		if m.picker.Multi() {
			mark := "[ ] "
			if item.Selected {
				mark = "[x] "
			}
			line = mark + line
		}
		if item.Hint != "" {
			line += "  " + styleSubtle.Render(item.Hint)
		}
		if i == cursor {
			line = styleSelected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(items) > end {
		b.WriteString(styleSubtle.Render(fmt.Sprintf("  ... %d more", len(items)-end)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleSubtle.Render(m.pickerFooter()))

	return m.renderModal(PickerWidth, b.String())
}

func (m *Model) pickerFooter() string {
	key := func(action keybinds.Action) string {
		return m.keybinds.KeyString(keybinds.ContextPicker, action)
	}
	switch m.mode {
	case ModeFacet:
		return fmt.Sprintf("%s: toggle | %s: clear | %s: next filter | %s: done",
			key(keybinds.ActionPickerToggle), key(keybinds.ActionPickerClear),
			key(keybinds.ActionNextField), key(keybinds.ActionPickerSelect))
	case ModeViews:
		return fmt.Sprintf("%s: load | %s: delete | %s: close",
			key(keybinds.ActionPickerSelect), key(keybinds.ActionPickerDelete), key(keybinds.ActionCloseModal))
	default:
		return fmt.Sprintf("%s: select | %s: close",
			key(keybinds.ActionPickerSelect), key(keybinds.ActionCloseModal))
	}
}

// renderSaveView asks for the name of the view to save
func (m *Model) renderSaveView() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Save view"))
	b.WriteString("\n\n")
	b.WriteString(styleSubtle.Render(fmt.Sprintf("Filters, sorting and page size of %s", m.def.Title)))
	b.WriteString("\n\n")
	b.WriteString(m.viewName.View())
	b.WriteString("\n\n")
	if m.errorMsg != "" {
		b.WriteString(styleError.Render(m.errorMsg))
		b.WriteString("\n")
	}
	b.WriteString(styleSubtle.Render("enter: save | esc: cancel"))
	return m.renderModal(PickerWidth, b.String())
}

// renderHelp renders the keybinding reference
func (m *Model) renderHelp() string {
	footer := styleSubtle.Render(fmt.Sprintf("%s: scroll | %s: close",
		m.keybinds.KeyString(keybinds.ContextHelp, keybinds.ActionNavigateDown),
		m.keybinds.KeyString(keybinds.ContextHelp, keybinds.ActionCloseModal)))

	content := styleTitle.Render("Keybindings") + "\n\n" + m.helpView.View() + "\n\n" + footer

	helpView := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBlue).
		Width(m.width-ModalWidthMargin).
		Height(m.height-ModalHeightMargin).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, helpView)
}

// updateHelpView lists the bindings of every context
func (m *Model) updateHelpView() {
	var b strings.Builder
	for _, ctx := range keybinds.Contexts {
		if ctx == keybinds.ContextGlobal {
			continue
		}
		b.WriteString(styleWarning.Render(helpSection(ctx)))
		b.WriteString("\n")

		for _, action := range m.keybinds.Actions(ctx) {
			keys := m.keybinds.KeyString(ctx, action)
			b.WriteString(fmt.Sprintf("  %-22s %s\n", keys, keybinds.Describe(action)))
		}
		b.WriteString("\n")
	}
	b.WriteString(styleWarning.Render("Everywhere"))
	b.WriteString("\n")
	for _, action := range m.keybinds.Actions(keybinds.ContextGlobal) {
		b.WriteString(fmt.Sprintf("  %-22s %s\n", m.keybinds.KeyString(keybinds.ContextGlobal, action), keybinds.Describe(action)))
	}
	m.helpView.SetContent(b.String())
}

func helpSection(ctx keybinds.Context) string {
	switch ctx {
	case keybinds.ContextTable:
		return "Table"
	case keybinds.ContextSearch:
		return "Search and text input"
	case keybinds.ContextPicker:
		return "Pickers"
	case keybinds.ContextDetail:
		return "Record viewer"
	case keybinds.ContextLogin:
		return "Sign in"
	case keybinds.ContextHelp:
		return "Help"
	}
	return string(ctx)
}
