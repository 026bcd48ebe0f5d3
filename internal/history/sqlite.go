package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jimezsa/ghostcli/internal/models"
	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS history (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	entries TEXT NOT NULL
)`
	sqliteSelect = `SELECT entries FROM history WHERE id = 1`
	sqliteUpsert = `INSERT INTO history (id, entries) VALUES (1, ?)
ON CONFLICT(id) DO UPDATE SET entries = excluded.entries`
	sqliteDelete = `DELETE FROM history WHERE id = 1`
)

// SQLiteBackend stores history as a single-row JSON blob.
type SQLiteBackend struct {
	db *sql.DB
}

func OpenSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Get(ctx context.Context) ([]models.HistoryEntry, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, sqliteSelect).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse history row: %w", err)
	}
	if entries == nil {
		return []models.HistoryEntry{}, nil
	}
	return entries, nil
}

func (s *SQLiteBackend) Set(ctx context.Context, entries []models.HistoryEntry) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, sqliteUpsert, string(data))
	return err
}

func (s *SQLiteBackend) Remove(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteDelete)
	return err
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
