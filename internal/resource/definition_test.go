package resource

import (
	"strings"
	"testing"

	"github.com/studiowebux/lmscli/internal/config"
	"github.com/studiowebux/lmscli/internal/datatable"
)

func TestBuiltins_Valid(t *testing.T) {
	for name, def := range Builtins() {
		if def.Name != name {
			t.Errorf("Expected definition name %q, got %q", name, def.Name)
		}
		if err := def.Validate(); err != nil {
			t.Errorf("Builtin %s is invalid: %v", name, err)
		}
	}
}

func TestBuiltins_SearchModes(t *testing.T) {
	defs := Builtins()

	tests := []struct {
		name string
		want datatable.SearchMode
	}{
		{"courses", datatable.SearchMultiKey},
		{"users", datatable.SearchMultiKey},
		{"posts", datatable.SearchSingleKey},
		{"flashcards", datatable.SearchGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defs[tt.name].Table.Mode(); got != tt.want {
				t.Errorf("Expected mode %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLoad_OverridesAndAdds(t *testing.T) {
	sortable := false
	defs, err := Load(map[string]config.ResourceSettings{
		"courses": {Endpoint: "/v2/courses", DefaultSort: "title:asc"},
		"lessons": {
			Endpoint:  "/lessons",
			Columns:   []config.ColumnSettings{{ID: "title"}, {ID: "course.title", Header: "Course", Sortable: &sortable}},
			SearchKey: "title",
			ItemsPath: "data.rows",
			TotalPath: "data.count",
		},
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	courses := defs["courses"]
	if courses.Endpoint != "/v2/courses" {
		t.Errorf("Expected endpoint override, got %s", courses.Endpoint)
	}
	if len(courses.DefaultSort) != 1 || courses.DefaultSort[0].ColumnID != "title" || courses.DefaultSort[0].Desc {
		t.Errorf("Expected default sort title asc, got %+v", courses.DefaultSort)
	}
	if len(courses.Table.SearchKeys) != 2 {
		t.Errorf("Expected builtin search keys to survive, got %d", len(courses.Table.SearchKeys))
	}

	lessons, ok := defs["lessons"]
	if !ok {
		t.Fatal("Expected lessons resource")
	}
	if lessons.Title != "lessons" {
		t.Errorf("Expected title to default to the name, got %s", lessons.Title)
	}
	c, ok := lessons.Column("title")
	if !ok || c.Header != "title" || !c.Sortable {
		t.Errorf("Expected sortable title column with id as header, got %+v", c)
	}
	c, _ = lessons.Column("course.title")
	if c.Sortable {
		t.Error("Expected course.title to be unsortable")
	}
	if lessons.Table.Mode() != datatable.SearchSingleKey {
		t.Errorf("Expected single key search, got %v", lessons.Table.Mode())
	}

	if names := Names(defs); len(names) != 5 || names[0] != "courses" {
		t.Errorf("Expected 5 sorted names, got %v", names)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		settings config.ResourceSettings
		wantErr  string
	}{
		{"no endpoint", config.ResourceSettings{Columns: []config.ColumnSettings{{ID: "a"}}}, "endpoint"},
		{"no columns", config.ResourceSettings{Endpoint: "/x"}, "column"},
		{"duplicate column", config.ResourceSettings{Endpoint: "/x", Columns: []config.ColumnSettings{{ID: "a"}, {ID: "a"}}}, "duplicate"},
		{"unknown filter", config.ResourceSettings{Endpoint: "/x", Columns: []config.ColumnSettings{{ID: "a", Filter: "regex"}}}, "a"},
		{"search key not a column", config.ResourceSettings{Endpoint: "/x", Columns: []config.ColumnSettings{{ID: "a"}}, SearchKey: "b"}, "search key"},
		{"reserved column id", config.ResourceSettings{Endpoint: "/x", Columns: []config.ColumnSettings{{ID: "a"}, {ID: "page"}}}, "reserved"},
		{"bad sort", config.ResourceSettings{Endpoint: "/x", Columns: []config.ColumnSettings{{ID: "a"}}, DefaultSort: "a:sideways"}, "direction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(map[string]config.ResourceSettings{"custom": tt.settings})
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAccessor(t *testing.T) {
	rec := Record{
		"title":      "Go 101",
		"instructor": map[string]any{"fullName": "Ada Lovelace"},
	}

	flat, err := Accessor("title")
	if err != nil {
		t.Fatalf("Accessor failed: %v", err)
	}
	if got := flat(rec); got != "Go 101" {
		t.Errorf("Expected 'Go 101', got %v", got)
	}

	nested, err := Accessor("instructor.fullName")
	if err != nil {
		t.Fatalf("Accessor failed: %v", err)
	}
	if got := nested(rec); got != "Ada Lovelace" {
		t.Errorf("Expected 'Ada Lovelace', got %v", got)
	}
	if got := nested(Record{"title": "no instructor"}); got != nil {
		t.Errorf("Expected nil for missing path, got %v", got)
	}
}

func TestNewTable_DefaultSortAndCallback(t *testing.T) {
	def := Builtins()["courses"]

	var changes []datatable.State
	tbl, err := def.NewTable(25, func(s datatable.State) { changes = append(changes, s) })
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}

	if dir := tbl.SortDirection("createdAt"); dir != "desc" {
		t.Errorf("Expected createdAt desc, got %q", dir)
	}
	if len(changes) != 0 {
		t.Errorf("Expected default sort not to notify, got %d changes", len(changes))
	}
	if tbl.Pagination().PageSize != 25 {
		t.Errorf("Expected page size 25, got %d", tbl.Pagination().PageSize)
	}

	tbl.SetColumnFilterValue("status", []string{"draft"})
	if len(changes) != 1 {
		t.Fatalf("Expected 1 change, got %d", len(changes))
	}

	col, ok := tbl.Column("status")
	if !ok {
		t.Fatal("Expected status column")
	}
	if col.EnableGlobalFilter {
		t.Error("Expected facet column to be excluded from global search")
	}
}
