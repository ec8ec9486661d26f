package filter

import (
	"context"
	"encoding/json"
	"slices"
	"testing"
)

const pageJSON = `{
	"items": [
		{"id": 1, "title": "Go 101", "status": "published"},
		{"id": 2, "title": "Rust 101", "status": "draft"},
		{"id": 3, "title": "SQL Basics", "status": "published"}
	],
	"total": 3
}`

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("invalid test JSON: %v", err)
	}
	return v
}

func TestApply_WhereThenQuery(t *testing.T) {
	got, err := Apply(context.Background(), decode(t, pageJSON), "items[?status=='published']", "[].title")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	list, ok := got.([]any)
	if !ok {
		t.Fatalf("Expected a list, got %T", got)
	}
	titles := make([]string, len(list))
	for i, v := range list {
		titles[i], _ = v.(string)
	}
	if !slices.Equal(titles, []string{"Go 101", "SQL Basics"}) {
		t.Errorf("Expected published titles, got %v", titles)
	}
}

func TestApply_NoExpressions(t *testing.T) {
	data := decode(t, pageJSON)
	got, err := Apply(context.Background(), data, "", "")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got.(map[string]any)["total"] != 3.0 {
		t.Errorf("Expected data unchanged, got %v", got)
	}
}

func TestApply_MissingField(t *testing.T) {
	got, err := Apply(context.Background(), decode(t, pageJSON), "", "missing")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %v", got)
	}
}

func TestApply_InvalidExpression(t *testing.T) {
	if _, err := Apply(context.Background(), decode(t, pageJSON), "items[?", ""); err == nil {
		t.Error("Expected error for invalid where")
	}
	if _, err := Apply(context.Background(), decode(t, pageJSON), "", "items[?"); err == nil {
		t.Error("Expected error for invalid query")
	}
}

func TestApply_ShellQuery(t *testing.T) {
	got, err := Apply(context.Background(), map[string]any{"total": 3}, "", "$(wc -c | tr -d ' ')")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// {"total":3} is 11 bytes; the count decodes as a JSON number
	if got != 11.0 {
		t.Errorf("Expected 11, got %v (%T)", got, got)
	}

	got, err = Apply(context.Background(), map[string]any{"total": 3}, "", "$(echo done)")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "done" {
		t.Errorf("Expected raw text output, got %v", got)
	}

	if _, err := Apply(context.Background(), nil, "", "$(exit 3)"); err == nil {
		t.Error("Expected error for failing command")
	}
}

func TestSearch(t *testing.T) {
	data := map[string]any{"data": map[string]any{"rows": []any{"a", "b"}, "count": 2.0}}

	rows, err := Search(data, "data.rows")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if list, ok := rows.([]any); !ok || len(list) != 2 {
		t.Errorf("Expected 2 rows, got %v", rows)
	}

	count, err := Search(data, "data.count")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if count != 2.0 {
		t.Errorf("Expected 2, got %v", count)
	}
}

func TestCompile_Reuses(t *testing.T) {
	a, err := Compile("instructor.fullName")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	b, _ := Compile("instructor.fullName")
	if a != b {
		t.Error("Expected the cached expression to be reused")
	}
}

func TestIsValidJMESPath(t *testing.T) {
	tests := []struct {
		expr     string
		expected bool
	}{
		{"items[].title", true},
		{"items[?status=='draft']", true},
		{"items[?", false},
	}
	for _, tt := range tests {
		if got := IsValidJMESPath(tt.expr); got != tt.expected {
			t.Errorf("IsValidJMESPath(%q): expected %v, got %v", tt.expr, tt.expected, got)
		}
	}
}

func TestIsShellCommand(t *testing.T) {
	if !IsShellCommand("$(jq .)") {
		t.Error("Expected $(jq .) to be a shell command")
	}
	if IsShellCommand("items") {
		t.Error("Expected items not to be a shell command")
	}
}
