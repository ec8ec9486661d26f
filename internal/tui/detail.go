package tui

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/studiowebux/lmscli/internal/keybinds"
	"github.com/studiowebux/lmscli/internal/resource"
)

// setDetail replaces the record shown in the detail viewer
func (m *Model) setDetail(rec resource.Record) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		m.detailRaw = ""
		m.detailView.SetContent(styleError.Render(fmt.Sprintf("Cannot display record: %v", err)))
		return
	}
	m.detailRaw = string(data)
	m.detailView.SetContent(highlightJSON(m.detailRaw))
}

// highlightJSON colors JSON for a 256-color terminal, falling back to the
// plain text when highlighting fails
func highlightJSON(src string) string {
	var buf bytes.Buffer
	if err := quick.Highlight(&buf, src, "json", "terminal256", "monokai"); err != nil {
		return src
	}
	return buf.String()
}

// renderDetail renders the record viewer
func (m *Model) renderDetail() string {
	title := m.def.Title
	if m.detailID != "" {
		title = fmt.Sprintf("%s / %s", m.def.Title, m.detailID)
	}

	status := styleSubtle.Render(fmt.Sprintf("%s: scroll | %s: copy | %s: close",
		m.keybinds.KeyString(keybinds.ContextDetail, keybinds.ActionNavigateDown),
		m.keybinds.KeyString(keybinds.ContextDetail, keybinds.ActionCopy),
		m.keybinds.KeyString(keybinds.ContextDetail, keybinds.ActionCloseModal)))
	if m.errorMsg != "" {
		status = styleError.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		status = styleSuccess.Render(m.statusMsg)
	}

	content := styleTitle.Render(title) + "\n\n" + m.detailView.View() + "\n\n" + status
	return m.renderModal(m.width-ModalWidthMargin, content)
}
