package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend stores each blob as <dir>/<name>.gob
type FileBackend struct {
	dataDir string
	lock    *fileLock
}

// NewFileBackend creates the data directory if needed
func NewFileBackend(dataDir string) (*FileBackend, error) {
	dataDir, err := ExpandHome(dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileBackend{dataDir: dataDir}, nil
}

// Dir returns the data directory
func (b *FileBackend) Dir() string {
	return b.dataDir
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.dataDir, name+".gob")
}

// Lock claims the data directory for a single writer until Close. The
// claim ends with the process, so a crashed run never blocks the next one.
func (b *FileBackend) Lock() error {
	if b.lock != nil {
		return nil
	}
	l, err := acquireLock(filepath.Join(b.dataDir, lockName))
	if err != nil {
		return err
	}
	b.lock = l
	return nil
}

// Read returns the blob, or ErrNotFound
func (b *FileBackend) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// Write stages data in a temp file next to the target, syncs it and renames
// it over the target, so readers see the old blob or the new one.
func (b *FileBackend) Write(_ context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(b.dataDir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() // nolint:errcheck
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path(name)); err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	return nil
}

// Close releases the lock if held
func (b *FileBackend) Close() error {
	l := b.lock
	b.lock = nil
	return l.release()
}
