// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvested datasets and resources in SQLite and
// implements the repository the reconciliation engine merges into.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

// Store is a SQLite-backed dataset repository.
type Store struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// Open opens or creates the database at cfg.Path and creates the schema if
// it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.createSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// New wraps an already opened database. The schema is not created.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS licenses (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			title TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS datasets (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			tags TEXT,
			license_id TEXT REFERENCES licenses(id),
			last_modified TEXT,
			created_at TEXT NOT NULL,
			harvest_domain TEXT NOT NULL DEFAULT '',
			harvest_remote_id TEXT NOT NULL DEFAULT '',
			harvest_source_name TEXT,
			harvest_ods_url TEXT,
			harvest_references TEXT,
			harvest_has_records INTEGER NOT NULL DEFAULT 0,
			harvest_is_geo INTEGER NOT NULL DEFAULT 0,
			harvest_last_update TEXT
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_datasets_harvest
			ON datasets(harvest_domain, harvest_remote_id) WHERE harvest_remote_id != ''`,
		`CREATE TABLE IF NOT EXISTS resources (
			id TEXT PRIMARY KEY,
			dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT,
			format TEXT,
			mime TEXT,
			url TEXT NOT NULL,
			modified TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			ods_type TEXT,
			key_kind TEXT NOT NULL DEFAULT '',
			key_slug TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_dataset_id ON resources(dataset_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_natural_key
			ON resources(dataset_id, key_kind, key_slug) WHERE key_slug != ''`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RunInTx runs fn inside a transaction. Repository calls made with the
// context passed to fn join that transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Op: "commit", Err: err}
	}
	return nil
}

// conn returns the transaction carried by ctx, or the database.
func (s *Store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(ns sql.NullString) time.Time {
	if !ns.Valid || ns.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, ns.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
