package tui

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/studiowebux/lmscli/internal/apiclient"
	"github.com/studiowebux/lmscli/internal/keybinds"
	"github.com/studiowebux/lmscli/internal/resource"
	"github.com/studiowebux/lmscli/internal/session"
	"github.com/studiowebux/lmscli/internal/storage"
	"github.com/studiowebux/lmscli/internal/views"
)

// testBackend answers sign-in, profile and list calls with fixed data
func testBackend(t *testing.T) *httptest.Server {
	t.Helper()

	respond := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 200, "message": "OK", "data": data})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{"accessToken": "access-1", "refreshToken": "refresh-1"})
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{"id": "u1", "email": "ada@example.com", "fullName": "Ada Lovelace"})
	})
	mux.HandleFunc("/courses", func(w http.ResponseWriter, r *http.Request) {
		respond(w, map[string]any{
			"items": []map[string]any{{"id": "c1", "title": "Go basics", "status": "published"}},
			"total": 1,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// CreateTestModel creates a Model over an in-memory session and a fake backend.
// authenticated seeds the session with tokens so the model starts browsing.
func CreateTestModel(t *testing.T, authenticated bool) *Model {
	t.Helper()

	srv := testBackend(t)
	sess := session.NewManager(storage.NewMemory())
	if authenticated {
		if err := sess.SetTokens(apiclient.Tokens{AccessToken: "access-0", RefreshToken: "refresh-0"}); err != nil {
			t.Fatalf("SetTokens failed: %v", err)
		}
	}

	client, err := apiclient.New(
		apiclient.Config{BaseURL: srv.URL, Timeout: 5 * time.Second},
		apiclient.WithAuth(sess),
	)
	if err != nil {
		t.Fatalf("apiclient.New failed: %v", err)
	}

	m, err := New(Options{
		Client:    client,
		Session:   sess,
		Resources: resource.Builtins(),
		Resource:  "courses",
		Keybinds:  keybinds.NewDefaultRegistry(),
		Debounce:  10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create test model: %v", err)
	}
	t.Cleanup(m.Cleanup)

	m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return m
}

// CreateTestModelWithViews adds a saved view store backed by SQLite
func CreateTestModelWithViews(t *testing.T) *Model {
	t.Helper()

	m := CreateTestModel(t, true)
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "views.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	m.views = views.NewManager(kv.DB())
	return m
}

// pressKey sends one key through Update
func pressKey(m *Model, key string) tea.Cmd {
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+d":
		msg = tea.KeyMsg{Type: tea.KeyCtrlD}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

// typeText sends each rune of s as a key press
func typeText(m *Model, s string) {
	for _, r := range s {
		pressKey(m, string(r))
	}
}

// loadPage delivers a page for the latest request
func loadPage(m *Model, total int, items ...resource.Record) {
	m.Update(pageLoadedMsg{requestID: m.requestID, page: resource.Page{Items: items, Total: total}})
}

// AssertModelField verifies a model field has the expected value
func AssertModelField[T comparable](t *testing.T, fieldName string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", fieldName, got, want)
	}
}
