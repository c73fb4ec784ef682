package storage

import (
	"errors"
	"fmt"
	"os"
)

const lockName = ".lock"

// ErrLocked is returned when another writer holds the data directory
var ErrLocked = errors.New("data directory is locked by another run")

// fileLock is an exclusive lock on a lock file. The lock lives as long as
// the open descriptor, so a crashed process leaves nothing to clean up.
type fileLock struct {
	path string
	f    *os.File
}

// acquireLock locks path without blocking, or returns ErrLocked
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close() // nolint:errcheck
		return nil, err
	}
	// pid is informational only
	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}
	return &fileLock{path: path, f: f}, nil
}

// release unlocks and closes the descriptor. The file itself stays so the
// next writer locks the same inode.
func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	unlockFile(f) // nolint:errcheck
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing lock file: %w", err)
	}
	return nil
}
