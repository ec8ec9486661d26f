// Package views stores named table views (filters, sorting, page size) per
// resource in the local database.
package views

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studiowebux/lmscli/internal/datatable"
)

// ErrNotFound is returned when a view does not exist
var ErrNotFound = errors.New("view not found")

// View is a saved table view
type View struct {
	ID        int
	Resource  string
	Name      string
	State     datatable.State
	CreatedAt time.Time
}

// storedFilter keeps text and set filters apart so they survive JSON
type storedFilter struct {
	Column string   `json:"column"`
	Text   string   `json:"text,omitempty"`
	Set    []string `json:"set,omitempty"`
}

type storedSort struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

type storedState struct {
	Filters  []storedFilter `json:"filters,omitempty"`
	Global   string         `json:"global,omitempty"`
	Sorting  []storedSort   `json:"sorting,omitempty"`
	PageSize int            `json:"pageSize,omitempty"`
}

func encodeState(s datatable.State) (string, error) {
	st := storedState{Global: s.GlobalFilter, PageSize: s.Pagination.PageSize}
	for _, f := range s.ColumnFilters {
		sf := storedFilter{Column: f.ColumnID}
		if set := datatable.SetValue(f.Value); set != nil {
			sf.Set = set
		} else {
			sf.Text = datatable.TextValue(f.Value)
		}
		st.Filters = append(st.Filters, sf)
	}
	for _, r := range s.Sorting {
		st.Sorting = append(st.Sorting, storedSort{Column: r.ColumnID, Desc: r.Desc})
	}

	data, err := json.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeState(raw string) (datatable.State, error) {
	var st storedState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return datatable.State{}, fmt.Errorf("invalid stored view: %w", err)
	}

	s := datatable.State{GlobalFilter: st.Global, Pagination: datatable.Pagination{PageSize: st.PageSize}}
	for _, f := range st.Filters {
		var value any = f.Text
		if len(f.Set) > 0 {
			value = f.Set
		}
		s.ColumnFilters = append(s.ColumnFilters, datatable.ColumnFilter{ColumnID: f.Column, Value: value})
	}
	for _, r := range st.Sorting {
		s.Sorting = append(s.Sorting, datatable.SortingRule{ColumnID: r.Column, Desc: r.Desc})
	}
	return s, nil
}

// Manager handles saved view persistence
type Manager struct {
	db *sql.DB
}

// NewManager creates a manager on a migrated database
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// Save stores state under name, replacing an existing view with that name.
// It reports whether a new view was created.
func (m *Manager) Save(ctx context.Context, resource, name string, state datatable.State) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, fmt.Errorf("view name cannot be empty")
	}

	encoded, err := encodeState(state)
	if err != nil {
		return false, fmt.Errorf("failed to encode view: %w", err)
	}

	var exists bool
	err = m.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM saved_views WHERE resource = ? AND name = ?)", resource, name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check view: %w", err)
	}

	_, err = m.db.ExecContext(ctx, `
		INSERT INTO saved_views (resource, name, state, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(resource, name) DO UPDATE SET state = excluded.state
	`, resource, name, encoded)
	if err != nil {
		return false, fmt.Errorf("failed to save view: %w", err)
	}

	return !exists, nil
}

// Load returns the state saved under name
func (m *Manager) Load(ctx context.Context, resource, name string) (datatable.State, error) {
	var raw string
	err := m.db.QueryRowContext(ctx,
		"SELECT state FROM saved_views WHERE resource = ? AND name = ?", resource, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return datatable.State{}, ErrNotFound
	}
	if err != nil {
		return datatable.State{}, fmt.Errorf("failed to load view: %w", err)
	}
	return decodeState(raw)
}

// Delete removes a view
func (m *Manager) Delete(ctx context.Context, resource, name string) error {
	result, err := m.db.ExecContext(ctx, "DELETE FROM saved_views WHERE resource = ? AND name = ?", resource, name)
	if err != nil {
		return fmt.Errorf("failed to delete view: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the views of resource, newest first
func (m *Manager) List(ctx context.Context, resource string) ([]View, error) {
	return m.Search(ctx, resource, "")
}

// Search filters the views of resource by name substring (case-insensitive)
func (m *Manager) Search(ctx context.Context, resource, query string) ([]View, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, resource, name, state, created_at
		FROM saved_views
		WHERE resource = ? AND name LIKE ?
		ORDER BY created_at DESC, id DESC
	`, resource, "%"+strings.TrimSpace(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to query views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var v View
		var raw string
		if err := rows.Scan(&v.ID, &v.Resource, &v.Name, &raw, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan view: %w", err)
		}
		if v.State, err = decodeState(raw); err != nil {
			return nil, err
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating views: %w", err)
	}
	return views, nil
}
