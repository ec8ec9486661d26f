package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/tui"
)

// ChooseResource returns name, or asks for one when name is empty and in is
// a terminal
func (a *App) ChooseResource(name string, in io.Reader) (string, error) {
	if name != "" {
		if _, err := a.definition(name); err != nil {
			return "", err
		}
		return name, nil
	}
	if !isInteractive(in) {
		return "", fmt.Errorf("a resource is required (one of: %s)", strings.Join(resource.Names(a.Resources), ", "))
	}
	return promptForResource(a.Resources)
}

// Browse runs the interactive table browser until the user quits
func (a *App) Browse(ctx context.Context, name, version string) error {
	registry, err := a.Keybinds()
	if err != nil {
		return err
	}

	opts := tui.Options{
		Client:    a.Client,
		Session:   a.Session,
		Views:     a.Views,
		Resources: a.Resources,
		Resource:  name,
		Keybinds:  registry,
		Expired:   a.Expired,
		Logger:    a.Logger,
		Version:   version,
	}
	if a.Settings != nil {
		opts.PageSize = a.Settings.PageSize
		opts.Debounce = time.Duration(a.Settings.Debounce)
	}

	m, err := tui.New(opts)
	if err != nil {
		return err
	}
	defer m.Cleanup()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running browser: %w", err)
	}
	a.logger().Info("browser closed")
	return nil
}
