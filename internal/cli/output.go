package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// ResolveFormat validates format. An empty format means table on a terminal
// and json when output is piped.
func ResolveFormat(format string, out io.Writer) (string, error) {
	switch strings.ToLower(format) {
	case "":
		if f, ok := out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return FormatTable, nil
		}
		return FormatJSON, nil
	case FormatJSON, FormatYAML, FormatTable:
		return strings.ToLower(format), nil
	default:
		return "", fmt.Errorf("unknown output format %q (use json, yaml or table)", format)
	}
}

// writeData prints v as json or yaml. Table output is handled by callers
// that know their columns; other values fall back to json.
func writeData(w io.Writer, format string, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		return nil
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// writeTable renders rows under headers with a rounded border
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)

	_, err := fmt.Fprintln(w, t.String())
	return err
}

// truncateCell keeps table cells on one line
func truncateCell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if width <= 0 || len([]rune(s)) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
