package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/studiowebux/lmscli/internal/apiclient"
)

// progressInterval throttles progress redraws
const progressInterval = 100 * time.Millisecond

// progressBar draws transfer progress on one terminal line
type progressBar struct {
	w     io.Writer
	label string
	bar   progress.Model
	last  time.Time
}

func newProgressBar(w io.Writer, label string) *progressBar {
	return &progressBar{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// update is an apiclient.ProgressFunc
func (p *progressBar) update(done, total int64) {
	if time.Since(p.last) < progressInterval && (total <= 0 || done < total) {
		return
	}
	p.last = time.Now()

	if total <= 0 {
		fmt.Fprintf(p.w, "\r%s %s", p.label, formatBytes(done))
		return
	}
	fmt.Fprintf(p.w, "\r%s %s %s / %s", p.label, p.bar.ViewAs(float64(done)/float64(total)),
		formatBytes(done), formatBytes(total))
}

func (p *progressBar) done() {
	fmt.Fprintln(p.w)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// progressFor returns a progress callback drawing on stderr, or nil when
// stderr is not a terminal
func progressFor(stderr io.Writer, label string) (apiclient.ProgressFunc, func()) {
	f, ok := stderr.(*os.File)
	if !ok || !isInteractive(f) {
		return nil, func() {}
	}
	bar := newProgressBar(stderr, label)
	return bar.update, bar.done
}

// Download saves the response of path to dest; "-" writes to w
func (a *App) Download(ctx context.Context, path, dest string, w, stderr io.Writer) error {
	out := w
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		defer f.Close()
		out = f
	}

	progressFn, finish := progressFor(stderr, "Downloading")
	n, err := a.Client.Download(ctx, path, nil, out, progressFn)
	finish()
	if err != nil {
		if dest != "-" {
			os.Remove(dest)
		}
		return err
	}

	a.logger().Debug("download finished", "path", path, "bytes", n)
	if dest != "-" {
		fmt.Fprintf(stderr, "Saved %s to %s\n", formatBytes(n), dest)
	}
	return nil
}

// UploadOptions contains options for a multipart upload
type UploadOptions struct {
	Path      string
	File      string
	FieldName string
	Fields    []string // key=value form fields
	Output    string
}

// Upload sends a file as multipart form data and prints the response
func (a *App) Upload(ctx context.Context, opts UploadOptions, w, stderr io.Writer) error {
	format, err := ResolveFormat(opts.Output, w)
	if err != nil {
		return err
	}

	fields := make(map[string]string, len(opts.Fields))
	for _, kv := range opts.Fields {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid field %q (use key=value)", kv)
		}
		fields[k] = v
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.File, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", opts.File, err)
	}

	field := opts.FieldName
	if field == "" {
		field = "file"
	}

	progressFn, finish := progressFor(stderr, "Uploading")
	var result any
	err = a.Client.Upload(ctx, opts.Path, apiclient.UploadFile{
		FieldName: field,
		FileName:  filepath.Base(opts.File),
		Reader:    f,
		Size:      info.Size(),
	}, fields, progressFn, &result)
	finish()
	if err != nil {
		return err
	}

	if result == nil {
		_, err := fmt.Fprintf(w, "Uploaded %s\n", filepath.Base(opts.File))
		return err
	}
	if format == FormatTable {
		format = FormatYAML
	}
	return writeData(w, format, result)
}
