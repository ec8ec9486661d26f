package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/datatable"
)

func newTestLister(t *testing.T, handler http.HandlerFunc) *Lister {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("apiclient.New failed: %v", err)
	}
	return NewLister(client)
}

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "OK", "data": data})
}

func TestLister_List(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/courses" {
			t.Errorf("Expected path /courses, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("status") != "draft" {
			t.Errorf("Expected status=draft, got %q", r.URL.Query().Get("status"))
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("Expected page=2, got %q", r.URL.Query().Get("page"))
		}
		respond(w, map[string]any{
			"items": []any{
				map[string]any{"title": "Go 101", "instructor": map[string]any{"fullName": "Ada"}},
				map[string]any{"title": "Rust 101"},
			},
			"total": 42,
		})
	})

	state := datatable.State{
		ColumnFilters: []datatable.ColumnFilter{{ColumnID: "status", Value: []string{"draft"}}},
		Pagination:    datatable.Pagination{PageIndex: 1, PageSize: 10},
	}
	page, err := lister.List(context.Background(), Builtins()["courses"], state)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(page.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(page.Items))
	}
	if page.Total != 42 {
		t.Errorf("Expected total 42, got %d", page.Total)
	}
	if page.Items[0]["title"] != "Go 101" {
		t.Errorf("Expected first title 'Go 101', got %v", page.Items[0]["title"])
	}
}

func TestLister_ListBareArray(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, []any{map[string]any{"front": "hola"}, "loose"})
	})

	page, err := lister.List(context.Background(), Builtins()["flashcards"], datatable.State{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Expected total to fall back to item count 2, got %d", page.Total)
	}
	if page.Items[1]["value"] != "loose" {
		t.Errorf("Expected scalar item wrapped under value, got %v", page.Items[1])
	}
}

func TestLister_CustomPaths(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{
			"rows": []any{map[string]any{"title": "Intro"}},
			"meta": map[string]any{"count": 7},
		})
	})

	def := Builtins()["posts"]
	def.ItemsPath = "rows"
	def.TotalPath = "meta.count"

	page, err := lister.List(context.Background(), def, datatable.State{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Items) != 1 || page.Total != 7 {
		t.Errorf("Expected 1 item of 7, got %d of %d", len(page.Items), page.Total)
	}
}

func TestLister_ItemsNotAList(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{"items": "nope"})
	})

	if _, err := lister.List(context.Background(), Builtins()["users"], datatable.State{}); err == nil {
		t.Error("Expected error when items is not a list")
	}
}

func TestLister_Get(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/users/a%2Fb" {
			t.Errorf("Expected escaped id in path, got %s", r.URL.EscapedPath())
		}
		respond(w, map[string]any{"id": "a/b", "email": "a@b.c"})
	})

	rec, err := lister.Get(context.Background(), Builtins()["users"], "a/b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec["email"] != "a@b.c" {
		t.Errorf("Expected email a@b.c, got %v", rec["email"])
	}
}

func TestLister_APIError(t *testing.T) {
	lister := newTestLister(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{"code": 403, "message": "Forbidden"})
	})

	_, err := lister.List(context.Background(), Builtins()["users"], datatable.State{})
	if err == nil || err.Error() != "Forbidden" {
		t.Errorf("Expected server message 'Forbidden', got %v", err)
	}
}
