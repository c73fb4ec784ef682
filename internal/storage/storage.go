package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store names
const (
	StatsHome = "stats_home"
	StatsAway = "stats_away"
	Scores    = "scores"
	Injuries  = "injuries"
)

// ErrNotFound is returned by a Backend for a blob that was never written
var ErrNotFound = errors.New("blob not found")

// Error wraps a failure to read or write persisted state. It is the only
// error the pipeline treats as fatal.
type Error struct {
	Store string
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Op, e.Store, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Backend reads and atomically replaces named blobs
type Backend interface {
	Read(ctx context.Context, name string) ([]byte, error)
	Write(ctx context.Context, name string, data []byte) error
	Close() error
}

// Store loads and saves one value of type T under a fixed name
type Store[T any] struct {
	backend Backend
	name    string
	empty   func() T
}

// New creates a store for name. empty builds the value returned when nothing
// has been saved yet.
func New[T any](backend Backend, name string, empty func() T) *Store[T] {
	return &Store[T]{backend: backend, name: name, empty: empty}
}

// Name returns the store name
func (s *Store[T]) Name() string {
	return s.name
}

// Load returns the saved value, or the empty value if none exists
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	data, err := s.backend.Read(ctx, s.name)
	if errors.Is(err, ErrNotFound) {
		return s.empty(), nil
	}
	if err != nil {
		var zero T
		return zero, &Error{Store: s.name, Op: "reading", Err: err}
	}

	v := s.empty()
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		var zero T
		return zero, &Error{Store: s.name, Op: "decoding", Err: err}
	}
	return v, nil
}

// Save encodes v and replaces the stored blob in one step
func (s *Store[T]) Save(ctx context.Context, v T) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return &Error{Store: s.name, Op: "encoding", Err: err}
	}
	if err := s.backend.Write(ctx, s.name, buf.Bytes()); err != nil {
		return &Error{Store: s.name, Op: "writing", Err: err}
	}
	return nil
}

// ExpandHome expands a leading ~/ to the user's home directory
func ExpandHome(dir string) (string, error) {
	if !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, dir[2:]), nil
}
