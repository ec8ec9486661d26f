// Package logging sets up the process-wide slog logger.
//
// CLI commands log to stderr through a tint handler. The TUI owns the
// terminal, so it logs JSON lines to a file instead.
package logging

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level is shared by every handler created here
var Level = &slog.LevelVar{}

// SetLevelByName sets Level from a config string. Unknown names keep the current level.
func SetLevelByName(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "err", "error":
		Level.Set(slog.LevelError)
	case "warn", "warning":
		Level.Set(slog.LevelWarn)
	case "info":
		Level.Set(slog.LevelInfo)
	case "debug":
		Level.Set(slog.LevelDebug)
	}
}

// NewTerminal returns a logger writing colored lines to w
func NewTerminal(w io.Writer) *slog.Logger {
	noColor := runtime.GOOS == "windows"
	if f, ok := w.(*os.File); ok && !isatty.IsTerminal(f.Fd()) {
		noColor = true
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:   Level,
		NoColor: noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// NewJSON returns a logger writing JSON lines to w
func NewJSON(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level}))
}

// OpenFile opens (appending) a log file and returns a JSON logger on it.
// The caller closes the returned file.
func OpenFile(path string) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, err
	}
	return NewJSON(f), f, nil
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
