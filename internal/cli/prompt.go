package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/lmscli/internal/resource"
)

// ErrCancelled is returned when the user leaves a prompt
var ErrCancelled = errors.New("cancelled")

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	hintStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

type resourceItem struct {
	name     string
	title    string
	endpoint string
}

func (i resourceItem) FilterValue() string {
	return i.name + " " + i.title
}

type selectorModel struct {
	list     list.Model
	choice   string
	quitting bool
}

func (m selectorModel) Init() tea.Cmd {
	return nil
}

func (m selectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			m.choice = ""
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(resourceItem); ok {
				m.choice = i.name
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectorModel) View() string {
	if m.quitting {
		return ""
	}
	help := helpStyle.Render("↑/↓: navigate • /: filter • enter: select • q/esc: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

// itemDelegate renders one resource per line
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(resourceItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%-12s %s %s", i.name, i.title, hintStyle.Render(i.endpoint))

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}
	fmt.Fprint(w, fn(str))
}

// promptForResource shows an interactive list of resources
func promptForResource(defs map[string]resource.Definition) (string, error) {
	names := resource.Names(defs)
	items := make([]list.Item, len(names))
	for i, name := range names {
		def := defs[name]
		items[i] = resourceItem{name: def.Name, title: def.Title, endpoint: def.Endpoint}
	}

	const defaultWidth = 80
	listHeight := min(len(items)+6, 16)

	l := list.New(items, itemDelegate{}, defaultWidth, listHeight)
	l.Title = "Select a resource"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	finalModel, err := tea.NewProgram(selectorModel{list: l}).Run()
	if err != nil {
		return "", fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(selectorModel)
	if result.choice == "" {
		return "", ErrCancelled
	}
	return result.choice, nil
}

type inputModel struct {
	label     string
	input     textinput.Model
	value     string
	cancelled bool
	done      bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s\n", titleStyle.Render(m.label+":"), m.input.View())
}

// promptInput reads one line from the terminal; secret input is masked
func promptInput(label, placeholder string, secret bool) (string, error) {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()

	finalModel, err := tea.NewProgram(inputModel{label: label, input: ti}).Run()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	result := finalModel.(inputModel)
	if result.cancelled {
		return "", ErrCancelled
	}
	if secret {
		return result.value, nil
	}
	return strings.TrimSpace(result.value), nil
}
