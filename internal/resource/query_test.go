package resource

import (
	"slices"
	"testing"

	"github.com/studiowebux/lmscli/internal/datatable"
)

func TestQuery(t *testing.T) {
	state := datatable.State{
		ColumnFilters: []datatable.ColumnFilter{
			{ColumnID: "title", Value: "go"},
			{ColumnID: "status", Value: []string{"draft", "published"}},
		},
		GlobalFilter: "intro",
		Sorting:      []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}, {ColumnID: "title"}},
		Pagination:   datatable.Pagination{PageIndex: 2, PageSize: 20},
	}

	q := Query(state)

	expected := map[string]string{
		ParamPage:   "3",
		ParamLimit:  "20",
		ParamSort:   "createdAt:desc,title:asc",
		ParamSearch: "intro",
		"title":     "go",
		"status":    "draft,published",
	}
	for key, want := range expected {
		if got := q.Get(key); got != want {
			t.Errorf("Expected %s=%q, got %q", key, want, got)
		}
	}
}

func TestQuery_ReservedFilterIgnored(t *testing.T) {
	state := datatable.State{
		ColumnFilters: []datatable.ColumnFilter{
			{ColumnID: "page", Value: "99"},
			{ColumnID: "sort", Value: "title:asc"},
			{ColumnID: "q", Value: "other"},
		},
		GlobalFilter: "intro",
		Sorting:      []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}},
		Pagination:   datatable.Pagination{PageIndex: 1, PageSize: 10},
	}

	q := Query(state)

	if q.Get(ParamPage) != "2" {
		t.Errorf("Expected page 2, got %q", q.Get(ParamPage))
	}
	if q.Get(ParamSort) != "createdAt:desc" {
		t.Errorf("Expected sort createdAt:desc, got %q", q.Get(ParamSort))
	}
	if q.Get(ParamSearch) != "intro" {
		t.Errorf("Expected q=intro, got %q", q.Get(ParamSearch))
	}
}

func TestQuery_Minimal(t *testing.T) {
	q := Query(datatable.State{})

	if q.Get(ParamPage) != "1" {
		t.Errorf("Expected page 1, got %q", q.Get(ParamPage))
	}
	for _, key := range []string{ParamLimit, ParamSort, ParamSearch} {
		if q.Has(key) {
			t.Errorf("Expected no %s parameter", key)
		}
	}
}

func TestParseSort(t *testing.T) {
	tests := []struct {
		input    string
		expected []datatable.SortingRule
		wantErr  bool
	}{
		{"title", []datatable.SortingRule{{ColumnID: "title"}}, false},
		{"title:desc", []datatable.SortingRule{{ColumnID: "title", Desc: true}}, false},
		{"-createdAt, title:ASC", []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}, {ColumnID: "title"}}, false},
		{"", nil, false},
		{"title:up", nil, true},
		{"-", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rules, err := ParseSort(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !slices.Equal(rules, tt.expected) {
				t.Errorf("Expected %+v, got %+v", tt.expected, rules)
			}
		})
	}
}

func TestFormatSort_RoundTrip(t *testing.T) {
	rules := []datatable.SortingRule{{ColumnID: "votes", Desc: true}, {ColumnID: "title"}}

	parsed, err := ParseSort(FormatSort(rules))
	if err != nil {
		t.Fatalf("ParseSort failed: %v", err)
	}
	if !slices.Equal(parsed, rules) {
		t.Errorf("Expected %+v, got %+v", rules, parsed)
	}
}

func TestDefinition_ParseFilter(t *testing.T) {
	def := Builtins()["courses"]

	f, err := def.ParseFilter("status=draft, published")
	if err != nil {
		t.Fatalf("ParseFilter failed: %v", err)
	}
	if set := datatable.SetValue(f.Value); !slices.Equal(set, []string{"draft", "published"}) {
		t.Errorf("Expected facet set [draft published], got %v", f.Value)
	}

	f, err = def.ParseFilter("title=a,b")
	if err != nil {
		t.Fatalf("ParseFilter failed: %v", err)
	}
	if text := datatable.TextValue(f.Value); text != "a,b" {
		t.Errorf("Expected text 'a,b', got %v", f.Value)
	}

	for _, bad := range []string{"title", "=x", "nope=x"} {
		if _, err := def.ParseFilter(bad); err == nil {
			t.Errorf("Expected error for %q", bad)
		}
	}
}
