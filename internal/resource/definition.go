// Package resource maps browsable API collections onto datatable models
// and table state onto list queries.
package resource

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/studiowebux/lmscli/internal/config"
	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/filter"
)

const (
	// DefaultItemsPath locates rows in a list payload
	DefaultItemsPath = "items"
	// DefaultTotalPath locates the server row count in a list payload
	DefaultTotalPath = "total"
)

// Record is one row of a resource, as decoded from JSON
type Record map[string]any

// ColumnDef declares one column of a resource table.
// An ID containing a dot is evaluated as a JMESPath expression (author.fullName).
type ColumnDef struct {
	ID       string
	Header   string
	Width    int
	Filter   string
	Sortable bool
}

// Definition describes a browsable collection
type Definition struct {
	Name        string
	Title       string
	Endpoint    string
	Columns     []ColumnDef
	Table       datatable.Config
	ItemsPath   string
	TotalPath   string
	DefaultSort []datatable.SortingRule
}

func col(id, header string, width int, sortable bool) ColumnDef {
	return ColumnDef{ID: id, Header: header, Width: width, Sortable: sortable}
}

func options(values ...string) []datatable.Option {
	out := make([]datatable.Option, len(values))
	for i, v := range values {
		out[i] = datatable.Option{Label: strings.ToUpper(v[:1]) + v[1:], Value: v}
	}
	return out
}

// Builtins returns the collections every backend exposes
func Builtins() map[string]Definition {
	return map[string]Definition{
		"courses": {
			Name:     "courses",
			Title:    "Courses",
			Endpoint: "/courses",
			Columns: []ColumnDef{
				col("title", "Title", 32, true),
				col("instructor.fullName", "Instructor", 20, true),
				col("category", "Category", 14, true),
				{ID: "level", Header: "Level", Width: 12, Filter: "equals", Sortable: true},
				{ID: "status", Header: "Status", Width: 10, Filter: "equals", Sortable: true},
				col("price", "Price", 8, true),
				col("createdAt", "Created", 20, true),
			},
			Table: datatable.Config{
				SearchKeys: []datatable.SearchKey{
					{Value: "title", Label: "Title"},
					{Value: "instructor.fullName", Label: "Instructor"},
				},
				Filters: []datatable.FacetFilter{
					{ColumnID: "status", Title: "Status", Options: options("published", "draft", "archived")},
					{ColumnID: "level", Title: "Level", Options: options("beginner", "intermediate", "advanced")},
				},
			},
			DefaultSort: []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}},
		},
		"users": {
			Name:     "users",
			Title:    "Users",
			Endpoint: "/users",
			Columns: []ColumnDef{
				col("fullName", "Name", 24, true),
				col("email", "Email", 28, true),
				{ID: "roles", Header: "Roles", Width: 18, Filter: "includesAny"},
				{ID: "status", Header: "Status", Width: 10, Filter: "equals", Sortable: true},
				col("createdAt", "Joined", 20, true),
			},
			Table: datatable.Config{
				SearchKeys: []datatable.SearchKey{
					{Value: "fullName", Label: "Name"},
					{Value: "email", Label: "Email"},
				},
				Filters: []datatable.FacetFilter{
					{ColumnID: "roles", Title: "Role", Options: options("student", "teacher", "expert", "moderator", "admin")},
					{ColumnID: "status", Title: "Status", Options: options("active", "banned")},
				},
			},
		},
		"posts": {
			Name:     "posts",
			Title:    "Forum posts",
			Endpoint: "/forum/posts",
			Columns: []ColumnDef{
				col("title", "Title", 36, true),
				col("author.fullName", "Author", 20, false),
				{ID: "tags", Header: "Tags", Width: 20, Filter: "includesAny"},
				{ID: "status", Header: "Status", Width: 10, Filter: "equals", Sortable: true},
				col("votes", "Votes", 6, true),
				col("createdAt", "Posted", 20, true),
			},
			Table: datatable.Config{
				SearchKey: "title",
				Filters: []datatable.FacetFilter{
					{ColumnID: "status", Title: "Status", Options: options("open", "resolved", "closed")},
				},
			},
			DefaultSort: []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}},
		},
		"flashcards": {
			Name:     "flashcards",
			Title:    "Flashcards",
			Endpoint: "/flashcards",
			Columns: []ColumnDef{
				col("front", "Front", 30, true),
				col("back", "Back", 30, false),
				col("deck", "Deck", 16, true),
				{ID: "difficulty", Header: "Difficulty", Width: 10, Filter: "equals", Sortable: true},
			},
			Table: datatable.Config{
				Filters: []datatable.FacetFilter{
					{ColumnID: "difficulty", Title: "Difficulty", Options: options("easy", "medium", "hard")},
				},
			},
		},
	}
}

// Load merges configured resources over the built-ins
func Load(settings map[string]config.ResourceSettings) (map[string]Definition, error) {
	defs := Builtins()
	for name, rs := range settings {
		def, known := defs[name]
		if !known {
			def = Definition{Name: name, Title: name}
		}
		if err := def.apply(rs); err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		defs[name] = def
	}
	return defs, nil
}

func (d *Definition) apply(rs config.ResourceSettings) error {
	if rs.Endpoint != "" {
		d.Endpoint = rs.Endpoint
	}
	if rs.Title != "" {
		d.Title = rs.Title
	}
	if rs.ItemsPath != "" {
		d.ItemsPath = rs.ItemsPath
	}
	if rs.TotalPath != "" {
		d.TotalPath = rs.TotalPath
	}
	if rs.DefaultSort != "" {
		rules, err := ParseSort(rs.DefaultSort)
		if err != nil {
			return err
		}
		d.DefaultSort = rules
	}

	if len(rs.Columns) > 0 {
		d.Columns = make([]ColumnDef, 0, len(rs.Columns))
		for _, c := range rs.Columns {
			def := ColumnDef{ID: c.ID, Header: c.Header, Width: c.Width, Filter: c.Filter, Sortable: true}
			if c.Sortable != nil {
				def.Sortable = *c.Sortable
			}
			if def.Header == "" {
				def.Header = c.ID
			}
			d.Columns = append(d.Columns, def)
		}
	}

	// Search configuration is replaced as a whole
	if rs.SearchKey != "" || len(rs.SearchKeys) > 0 {
		d.Table.SearchKey = rs.SearchKey
		d.Table.SearchKeys = nil
		for _, k := range rs.SearchKeys {
			d.Table.SearchKeys = append(d.Table.SearchKeys, datatable.SearchKey{Value: k.Value, Label: k.Label})
		}
	}
	if len(rs.Filters) > 0 {
		d.Table.Filters = nil
		for _, f := range rs.Filters {
			facet := datatable.FacetFilter{ColumnID: f.ColumnID, Title: f.Title}
			for _, o := range f.Options {
				facet.Options = append(facet.Options, datatable.Option{Label: o.Label, Value: o.Value})
			}
			d.Table.Filters = append(d.Table.Filters, facet)
		}
	}
	return nil
}

// Validate checks that the definition is usable
func (d Definition) Validate() error {
	if d.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("at least one column is required")
	}

	ids := make(map[string]bool, len(d.Columns))
	for _, c := range d.Columns {
		if c.ID == "" {
			return fmt.Errorf("column without id")
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate column %s", c.ID)
		}
		ids[c.ID] = true
		if IsReservedParam(c.ID) {
			return fmt.Errorf("column %s: id is a reserved query parameter", c.ID)
		}
		if _, err := datatable.FilterByName(c.Filter); err != nil {
			return fmt.Errorf("column %s: %w", c.ID, err)
		}
		if strings.Contains(c.ID, ".") {
			if _, err := filter.Compile(c.ID); err != nil {
				return fmt.Errorf("column %s: %w", c.ID, err)
			}
		}
	}

	if d.Table.SearchKey != "" && !ids[d.Table.SearchKey] {
		return fmt.Errorf("search key %s is not a column", d.Table.SearchKey)
	}
	for _, k := range d.Table.SearchKeys {
		if !ids[k.Value] {
			return fmt.Errorf("search key %s is not a column", k.Value)
		}
	}
	for _, f := range d.Table.Filters {
		if !ids[f.ColumnID] {
			return fmt.Errorf("filter column %s is not a column", f.ColumnID)
		}
	}
	return nil
}

// Names returns the sorted names of defs
func Names(defs map[string]Definition) []string {
	return slices.Sorted(maps.Keys(defs))
}

// Column returns the column definition with id
func (d Definition) Column(id string) (ColumnDef, bool) {
	for _, c := range d.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// BuildColumns turns the definition into datatable columns over Record
func (d Definition) BuildColumns() ([]datatable.Column[Record], error) {
	facets := make(map[string]bool, len(d.Table.Filters))
	for _, f := range d.Table.Filters {
		facets[f.ColumnID] = true
	}

	cols := make([]datatable.Column[Record], 0, len(d.Columns))
	for _, c := range d.Columns {
		fn, err := datatable.FilterByName(c.Filter)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.ID, err)
		}
		accessor, err := Accessor(c.ID)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.ID, err)
		}
		cols = append(cols, datatable.Column[Record]{
			ID:                 c.ID,
			Header:             c.Header,
			Accessor:           accessor,
			FilterFn:           fn,
			EnableSorting:      c.Sortable,
			EnableGlobalFilter: !facets[c.ID],
		})
	}
	return cols, nil
}

// Accessor returns a cell reader for a column id. Dotted ids are evaluated
// as JMESPath expressions.
func Accessor(id string) (func(Record) any, error) {
	if !strings.Contains(id, ".") {
		return func(r Record) any { return r[id] }, nil
	}
	jp, err := filter.Compile(id)
	if err != nil {
		return nil, err
	}
	return func(r Record) any {
		v, err := jp.Search(map[string]any(r))
		if err != nil {
			return nil
		}
		return v
	}, nil
}

// NewTable builds a server-driven table for d
func (d Definition) NewTable(pageSize int, onChange func(datatable.State)) (*datatable.Table[Record], error) {
	cols, err := d.BuildColumns()
	if err != nil {
		return nil, err
	}
	tbl := datatable.New(cols, datatable.Options{
		ManualPagination: true,
		ManualFiltering:  true,
		ManualSorting:    true,
		PageSize:         pageSize,
	})
	if len(d.DefaultSort) > 0 {
		tbl.SetSorting(d.DefaultSort)
	}
	tbl.SetOnStateChange(onChange)
	return tbl, nil
}
