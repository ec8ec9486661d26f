// Package storage provides the durable key/value store behind the session.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studiowebux/lmscli/internal/migrations"
)

// migrateTimeout bounds schema setup when opening the database
const migrateTimeout = 10 * time.Second

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("key not found")

// KV is a small string key/value store
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// SQLiteKV stores keys in the kv table of a SQLite database
type SQLiteKV struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at dbPath
func OpenSQLite(dbPath string) (*SQLiteKV, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteKV{db: db}, nil
}

// Get returns the value stored under key
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Set upserts key
func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes keys in a single transaction
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}
	return tx.Commit()
}

// DB exposes the underlying database to other stores sharing the file
func (s *SQLiteKV) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

// MemoryKV is an in-process KV used for non-persistent sessions and tests
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty MemoryKV
func NewMemory() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

// Get returns the value stored under key
func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores key
func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// Delete removes keys
func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

// Close is a no-op
func (m *MemoryKV) Close() error {
	return nil
}
