// Package migrations owns the schema of the local SQLite database: the kv
// table behind the session and the saved_views table.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Migration is one forward schema step
type Migration struct {
	Version int
	Name    string
	Up      string
}

// All lists every migration in version order
var All = []Migration{
	{
		Version: 1,
		Name:    "kv updated_at index",
		Up:      `CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at DESC)`,
	},
	{
		Version: 2,
		// Early builds wrote tokens under bare keys that were never read back
		Name: "drop unnamespaced token rows",
		Up:   `DELETE FROM kv WHERE key IN ('token', 'refresh')`,
	},
	{
		Version: 3,
		Name:    "saved_views resource index",
		Up:      `CREATE INDEX IF NOT EXISTS idx_saved_views_resource ON saved_views(resource, created_at DESC)`,
	},
}

const baseSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS saved_views (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	resource TEXT NOT NULL,
	name TEXT NOT NULL,
	state TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(resource, name)
);

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Run creates the base tables and applies pending migrations. Each migration
// and its bookkeeping row commit together.
func Run(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, baseSchema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	current, err := CurrentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range All {
		if m.Version <= current {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.Up); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
		return fmt.Errorf("failed to record: %w", err)
	}
	return tx.Commit()
}

// CurrentVersion returns the highest applied migration, 0 for a fresh database
func CurrentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return version, nil
}
