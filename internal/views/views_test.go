package views

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/studiowebux/lmscli/internal/datatable"
	"github.com/studiowebux/lmscli/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	return NewManager(kv.DB())
}

func sampleState() datatable.State {
	return datatable.State{
		ColumnFilters: []datatable.ColumnFilter{
			{ColumnID: "title", Value: "golang"},
			{ColumnID: "status", Value: []string{"published", "draft"}},
		},
		Sorting:    []datatable.SortingRule{{ColumnID: "createdAt", Desc: true}},
		Pagination: datatable.Pagination{PageIndex: 3, PageSize: 20},
	}
}

func TestManager_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	created, err := m.Save(ctx, "courses", "drafts", sampleState())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !created {
		t.Error("Expected first save to create the view")
	}

	got, err := m.Load(ctx, "courses", "drafts")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got.Pagination.PageSize != 20 {
		t.Errorf("Expected page size 20, got %d", got.Pagination.PageSize)
	}
	if got.Pagination.PageIndex != 0 {
		t.Errorf("Expected views to start on the first page, got %d", got.Pagination.PageIndex)
	}
	if len(got.ColumnFilters) != 2 {
		t.Fatalf("Expected 2 filters, got %d", len(got.ColumnFilters))
	}
	if text := datatable.TextValue(got.ColumnFilters[0].Value); text != "golang" {
		t.Errorf("Expected text filter 'golang', got %q", text)
	}
	if set := datatable.SetValue(got.ColumnFilters[1].Value); !slices.Equal(set, []string{"published", "draft"}) {
		t.Errorf("Expected set filter [published draft], got %v", set)
	}
	if len(got.Sorting) != 1 || got.Sorting[0].ColumnID != "createdAt" || !got.Sorting[0].Desc {
		t.Errorf("Expected createdAt desc, got %+v", got.Sorting)
	}
}

func TestManager_SaveReplaces(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if _, err := m.Save(ctx, "courses", "mine", sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	replacement := datatable.State{GlobalFilter: "intro", Pagination: datatable.Pagination{PageSize: 50}}
	created, err := m.Save(ctx, "courses", "mine", replacement)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if created {
		t.Error("Expected second save to replace the view")
	}

	got, err := m.Load(ctx, "courses", "mine")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.GlobalFilter != "intro" {
		t.Errorf("Expected global filter 'intro', got %q", got.GlobalFilter)
	}
	if len(got.ColumnFilters) != 0 {
		t.Errorf("Expected no column filters, got %v", got.ColumnFilters)
	}

	list, err := m.List(ctx, "courses")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 view, got %d", len(list))
	}
}

func TestManager_SaveEmptyName(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.Save(context.Background(), "courses", "   ", sampleState()); err == nil {
		t.Error("Expected error for empty name")
	}
}

func TestManager_ScopedByResource(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if _, err := m.Save(ctx, "courses", "active", sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := m.Save(ctx, "users", "active", datatable.State{}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := m.Load(ctx, "posts", "active"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	list, err := m.List(ctx, "users")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Resource != "users" {
		t.Errorf("Expected only the users view, got %+v", list)
	}
}

func TestManager_Search(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	for _, name := range []string{"Draft courses", "published", "old drafts"} {
		if _, err := m.Save(ctx, "courses", name, datatable.State{}); err != nil {
			t.Fatalf("Save %q failed: %v", name, err)
		}
	}

	found, err := m.Search(ctx, "courses", "draft")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(found))
	}
	for _, v := range found {
		if v.Name == "published" {
			t.Errorf("Did not expect %q in results", v.Name)
		}
	}
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	if _, err := m.Save(ctx, "courses", "gone", sampleState()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := m.Delete(ctx, "courses", "gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := m.Delete(ctx, "courses", "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := m.Load(ctx, "courses", "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
