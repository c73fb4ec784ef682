package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores blobs as rows of one table
type SQLiteBackend struct {
	db   *sql.DB
	lock *fileLock
}

// NewSQLiteBackend opens (or creates) the database at dsn
func NewSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps :memory: databases shared and writes serialized
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Read returns the blob, or ErrNotFound
func (b *SQLiteBackend) Read(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRowContext(ctx, "SELECT data FROM blobs WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query blob %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the blob inside a transaction
func (b *SQLiteBackend) Write(ctx context.Context, name string, data []byte) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO blobs (name, data, updated_at) VALUES (?, ?, ?)",
		name, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return tx.Commit()
}

// Lock claims the database for a single writer until Close. Steps load,
// modify and save whole blobs, so two writers would overwrite each other.
// The lock file sits next to the database as <path>.lock.
func (b *SQLiteBackend) Lock(path string) error {
	if b.lock != nil {
		return nil
	}
	l, err := acquireLock(path + lockName)
	if err != nil {
		return err
	}
	b.lock = l
	return nil
}

// Close releases the lock if held and closes the database
func (b *SQLiteBackend) Close() error {
	l := b.lock
	b.lock = nil
	lockErr := l.release()
	if err := b.db.Close(); err != nil {
		return err
	}
	return lockErr
}
