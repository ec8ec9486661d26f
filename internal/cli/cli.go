package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/config"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/filter"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/views"
	"golang.org/x/sync/errgroup"
)

const (
	// countConcurrency caps parallel total lookups in `resources --counts`
	countConcurrency = 4
	// queryCellWidth truncates cells of ad-hoc query tables
	queryCellWidth = 32
)

// ErrViewsUnavailable is returned when no view store is open
var ErrViewsUnavailable = errors.New("saved views are not available")

// isInteractive reports whether r is a terminal
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// ListOptions contains options for listing one page of a resource
type ListOptions struct {
	Resource  string
	Search    string
	SearchKey string
	Filters   []string // column=value[,value]
	Sort      string   // col[:asc|desc][,...]
	Page      int      // 1-based; 0 means first
	PageSize  int
	View      string // saved view to start from
	SaveView  string // save the resulting state under this name
	Where     string // JMESPath filter on the page payload
	Query     string // JMESPath query or $(shell command)
	Output    string
}

func (a *App) pageSize(requested int) int {
	if requested > 0 {
		return requested
	}
	if a.Settings != nil && a.Settings.PageSize > 0 {
		return a.Settings.PageSize
	}
	return config.DefaultPageSize
}

func (a *App) definition(name string) (resource.Definition, error) {
	def, ok := a.Resources[name]
	if !ok {
		return resource.Definition{}, fmt.Errorf("unknown resource %q (available: %s)",
			name, strings.Join(resource.Names(a.Resources), ", "))
	}
	return def, nil
}

// ListState builds the table state described by opts, starting from a saved
// view when one is named
func (a *App) ListState(ctx context.Context, def resource.Definition, opts ListOptions) (datatable.State, error) {
	if opts.Page < 0 {
		return datatable.State{}, fmt.Errorf("invalid page %d", opts.Page)
	}

	tbl, err := def.NewTable(a.pageSize(opts.PageSize), nil)
	if err != nil {
		return datatable.State{}, err
	}

	if opts.View != "" {
		if a.Views == nil {
			return datatable.State{}, ErrViewsUnavailable
		}
		saved, err := a.Views.Load(ctx, def.Name, opts.View)
		if errors.Is(err, views.ErrNotFound) {
			return datatable.State{}, fmt.Errorf("view %q not found for %s", opts.View, def.Name)
		}
		if err != nil {
			return datatable.State{}, err
		}
		tbl.SetState(saved)
		if opts.PageSize > 0 {
			tbl.SetPageSize(opts.PageSize)
		}
	}

	for _, raw := range opts.Filters {
		f, err := def.ParseFilter(raw)
		if err != nil {
			return datatable.State{}, err
		}
		tbl.SetColumnFilterValue(f.ColumnID, f.Value)
	}

	tb := datatable.NewToolbar(tbl, def.Table)
	defer tb.Close()
	if opts.SearchKey != "" {
		if err := tb.SelectKey(opts.SearchKey); err != nil {
			return datatable.State{}, err
		}
	}
	if opts.Search != "" {
		tb.Input(opts.Search)
		tb.Flush()
	}

	if opts.Sort != "" {
		rules, err := resource.ParseSort(opts.Sort)
		if err != nil {
			return datatable.State{}, err
		}
		for _, r := range rules {
			c, ok := def.Column(r.ColumnID)
			if !ok {
				return datatable.State{}, fmt.Errorf("unknown column %q", r.ColumnID)
			}
			if !c.Sortable {
				return datatable.State{}, fmt.Errorf("column %q is not sortable", r.ColumnID)
			}
		}
		tbl.SetSorting(rules)
	}

	state := tbl.State()
	if opts.Page > 0 {
		state.Pagination.PageIndex = opts.Page - 1
	}
	return state, nil
}

// List fetches one page of a resource and prints it
func (a *App) List(ctx context.Context, opts ListOptions, w io.Writer) error {
	def, err := a.definition(opts.Resource)
	if err != nil {
		return err
	}
	format, err := ResolveFormat(opts.Output, w)
	if err != nil {
		return err
	}

	state, err := a.ListState(ctx, def, opts)
	if err != nil {
		return err
	}

	page, err := resource.NewLister(a.Client).List(ctx, def, state)
	if err != nil {
		return err
	}

	if opts.SaveView != "" {
		if a.Views == nil {
			return ErrViewsUnavailable
		}
		replaced, err := a.Views.Save(ctx, def.Name, opts.SaveView, state)
		if err != nil {
			return err
		}
		a.logger().Info("view saved", "resource", def.Name, "name", opts.SaveView, "replaced", replaced)
	}

	if opts.Where != "" || opts.Query != "" {
		result, err := filter.Apply(ctx, page.Raw, opts.Where, opts.Query)
		if err != nil {
			return err
		}
		return writeQueried(w, format, result)
	}

	items := page.Items
	if items == nil {
		items = []resource.Record{}
	}
	if format != FormatTable {
		return writeData(w, format, items)
	}
	return writeRecords(w, def, items, page.Total, state.Pagination)
}

// writeRecords prints records under the resource's column headers with a
// pagination footer
func writeRecords(w io.Writer, def resource.Definition, items []resource.Record, total int, p datatable.Pagination) error {
	headers := make([]string, len(def.Columns))
	accessors := make([]func(resource.Record) any, len(def.Columns))
	for i, c := range def.Columns {
		headers[i] = c.Header
		acc, err := resource.Accessor(c.ID)
		if err != nil {
			return err
		}
		accessors[i] = acc
	}

	rows := make([][]string, len(items))
	for r, rec := range items {
		row := make([]string, len(def.Columns))
		for i, c := range def.Columns {
			row[i] = truncateCell(datatable.CellString(accessors[i](rec)), c.Width)
		}
		rows[r] = row
	}

	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}

	pages := 0
	if p.PageSize > 0 {
		pages = (total + p.PageSize - 1) / p.PageSize
	}
	_, err := fmt.Fprintf(w, "Page %d of %d (%d rows)\n", p.PageIndex+1, max(pages, 1), total)
	return err
}

// writeQueried prints the result of a where/query expression. Plain text
// from a shell query is printed as it is.
func writeQueried(w io.Writer, format string, v any) error {
	if text, ok := v.(string); ok {
		_, err := fmt.Fprintln(w, text)
		return err
	}
	if format == FormatTable {
		if headers, rows, ok := objectRows(v); ok {
			return writeTable(w, headers, rows)
		}
		format = FormatJSON
	}
	return writeData(w, format, v)
}

// objectRows turns a list of objects into table rows keyed by the union of
// their fields
func objectRows(v any) ([]string, [][]string, bool) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, nil, false
	}

	var headers []string
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, nil, false
		}
		for k := range obj {
			if !slices.Contains(headers, k) {
				headers = append(headers, k)
			}
		}
	}
	slices.Sort(headers)

	rows := make([][]string, len(list))
	for i, item := range list {
		obj := item.(map[string]any)
		row := make([]string, len(headers))
		for j, h := range headers {
			row[j] = truncateCell(datatable.CellString(obj[h]), queryCellWidth)
		}
		rows[i] = row
	}
	return headers, rows, true
}

// ResourceSummary is one line of `resources`
type ResourceSummary struct {
	Name     string `json:"name" yaml:"name"`
	Title    string `json:"title" yaml:"title"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Total    *int   `json:"total,omitempty" yaml:"total,omitempty"`
}

// ListResources prints the configured resources, optionally with their row
// counts fetched concurrently
func (a *App) ListResources(ctx context.Context, counts bool, output string, w io.Writer) error {
	format, err := ResolveFormat(output, w)
	if err != nil {
		return err
	}

	names := resource.Names(a.Resources)
	out := make([]ResourceSummary, len(names))
	for i, name := range names {
		def := a.Resources[name]
		out[i] = ResourceSummary{Name: def.Name, Title: def.Title, Endpoint: def.Endpoint}
	}

	if counts {
		lister := resource.NewLister(a.Client)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(countConcurrency)
		for i, name := range names {
			def := a.Resources[name]
			g.Go(func() error {
				page, err := lister.List(gctx, def, datatable.State{Pagination: datatable.Pagination{PageSize: 1}})
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				total := page.Total
				out[i].Total = &total
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if format != FormatTable {
		return writeData(w, format, out)
	}

	headers := []string{"Name", "Title", "Endpoint"}
	if counts {
		headers = append(headers, "Rows")
	}
	rows := make([][]string, len(out))
	for i, s := range out {
		row := []string{s.Name, s.Title, s.Endpoint}
		if s.Total != nil {
			row = append(row, fmt.Sprint(*s.Total))
		}
		rows[i] = row
	}
	return writeTable(w, headers, rows)
}

// LoginOptions contains options for signing in from the command line
type LoginOptions struct {
	Email         string
	Password      string
	PasswordStdin bool
	NoPersist     bool
}

// Login signs in and stores the session. Missing credentials are prompted for
// when in is a terminal.
func (a *App) Login(ctx context.Context, opts LoginOptions, in io.Reader, w io.Writer) error {
	if opts.PasswordStdin {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read password from stdin: %w", err)
		}
		opts.Password = strings.TrimRight(string(data), "\r\n")
	}

	var err error
	if opts.Email == "" {
		if !isInteractive(in) {
			return errors.New("email is required (use --email)")
		}
		if opts.Email, err = promptInput("Email", "you@example.com", false); err != nil {
			return err
		}
	}
	if opts.Password == "" {
		if !isInteractive(in) {
			return errors.New("password is required (use --password-stdin)")
		}
		if opts.Password, err = promptInput("Password", "", true); err != nil {
			return err
		}
	}

	if err := a.Session.SetPersist(!opts.NoPersist); err != nil {
		return err
	}
	if _, err := a.Client.Login(ctx, apiclient.Credentials{Email: strings.TrimSpace(opts.Email), Password: opts.Password}); err != nil {
		return err
	}

	profile, err := a.Client.Me(ctx)
	if err != nil {
		a.logger().Warn("signed in but profile lookup failed", "error", err)
		_, err = fmt.Fprintln(w, "Signed in")
		return err
	}
	_, err = fmt.Fprintf(w, "Signed in as %s\n", profile.DisplayName())
	return err
}

// Logout ends the session. The local session is cleared even when the server
// call fails.
func (a *App) Logout(ctx context.Context, w io.Writer) error {
	if !a.Session.IsAuthenticated() {
		_, err := fmt.Fprintln(w, "Not signed in")
		return err
	}
	if err := a.Client.Logout(ctx); err != nil {
		a.logger().Warn("server logout failed, local session cleared", "error", err)
	}
	_, err := fmt.Fprintln(w, "Signed out")
	return err
}

// Me prints the signed-in user
func (a *App) Me(ctx context.Context, output string, w io.Writer) error {
	format, err := ResolveFormat(output, w)
	if err != nil {
		return err
	}
	profile, err := a.Client.Me(ctx)
	if err != nil {
		return err
	}
	if format != FormatTable {
		return writeData(w, format, profile)
	}

	rows := [][]string{
		{"Name", profile.DisplayName()},
		{"Email", profile.Email},
		{"ID", datatable.CellString(profile.ID)},
	}
	if len(profile.Roles) > 0 {
		rows = append(rows, []string{"Roles", strings.Join(profile.Roles, ", ")})
	}
	if exp := a.Session.ExpiresAt(); !exp.IsZero() {
		rows = append(rows, []string{"Token expires", exp.Local().Format("2006-01-02 15:04")})
	}
	return writeTable(w, []string{"Field", "Value"}, rows)
}

// SetLocale stores the Accept-Language tag for later requests
func (a *App) SetLocale(tag string, w io.Writer) error {
	matched, err := a.Session.SetLocale(tag)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Locale set to %s\n", matched)
	return err
}

// ViewSummary is one line of `views list`
type ViewSummary struct {
	Resource  string            `json:"resource" yaml:"resource"`
	Name      string            `json:"name" yaml:"name"`
	Search    string            `json:"search,omitempty" yaml:"search,omitempty"`
	Filters   map[string]string `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort      string            `json:"sort,omitempty" yaml:"sort,omitempty"`
	PageSize  int               `json:"pageSize" yaml:"pageSize"`
	CreatedAt string            `json:"createdAt" yaml:"createdAt"`
}

func summarizeView(v views.View) ViewSummary {
	s := ViewSummary{
		Resource:  v.Resource,
		Name:      v.Name,
		Search:    v.State.GlobalFilter,
		Sort:      resource.FormatSort(v.State.Sorting),
		PageSize:  v.State.Pagination.PageSize,
		CreatedAt: v.CreatedAt.Local().Format("2006-01-02 15:04"),
	}
	if len(v.State.ColumnFilters) > 0 {
		s.Filters = make(map[string]string, len(v.State.ColumnFilters))
		for _, f := range v.State.ColumnFilters {
			if set := datatable.SetValue(f.Value); set != nil {
				s.Filters[f.ColumnID] = strings.Join(set, ",")
			} else {
				s.Filters[f.ColumnID] = datatable.TextValue(f.Value)
			}
		}
	}
	return s
}

// ListViews prints saved views of one resource, or of all when name is empty
func (a *App) ListViews(ctx context.Context, name, output string, w io.Writer) error {
	if a.Views == nil {
		return ErrViewsUnavailable
	}
	format, err := ResolveFormat(output, w)
	if err != nil {
		return err
	}

	names := resource.Names(a.Resources)
	if name != "" {
		def, err := a.definition(name)
		if err != nil {
			return err
		}
		names = []string{def.Name}
	}

	out := []ViewSummary{}
	for _, n := range names {
		list, err := a.Views.List(ctx, n)
		if err != nil {
			return err
		}
		for _, v := range list {
			out = append(out, summarizeView(v))
		}
	}

	if format != FormatTable {
		return writeData(w, format, out)
	}
	if len(out) == 0 {
		_, err := fmt.Fprintln(w, "No saved views.")
		return err
	}

	rows := make([][]string, len(out))
	for i, s := range out {
		filters := make([]string, 0, len(s.Filters))
		for k, v := range s.Filters {
			filters = append(filters, k+"="+v)
		}
		slices.Sort(filters)
		rows[i] = []string{s.Resource, s.Name, s.Search, strings.Join(filters, " "), s.Sort, s.CreatedAt}
	}
	return writeTable(w, []string{"Resource", "Name", "Search", "Filters", "Sort", "Created"}, rows)
}

// DeleteView removes a saved view
func (a *App) DeleteView(ctx context.Context, name, view string, w io.Writer) error {
	if a.Views == nil {
		return ErrViewsUnavailable
	}
	def, err := a.definition(name)
	if err != nil {
		return err
	}
	if err := a.Views.Delete(ctx, def.Name, view); err != nil {
		if errors.Is(err, views.ErrNotFound) {
			return fmt.Errorf("view %q not found for %s", view, def.Name)
		}
		return err
	}
	_, err = fmt.Fprintf(w, "Deleted view %q\n", view)
	return err
}
