package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Backend types accepted by Open
const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// Open builds the backend named by typ. For sqlite an empty dsn means
// <dataDir>/ncaabb.db. With writer set, the backend is locked so a second
// writer fails fast with ErrLocked. In-memory databases are never locked.
func Open(typ, dataDir, dsn string, writer bool) (Backend, error) {
	switch typ {
	case "", TypeFile:
		b, err := NewFileBackend(dataDir)
		if err != nil {
			return nil, err
		}
		if !writer {
			return b, nil
		}
		if err := b.Lock(); err != nil {
			return nil, err
		}
		return b, nil
	case TypeSQLite:
		if dsn == "" {
			fb, err := NewFileBackend(dataDir)
			if err != nil {
				return nil, err
			}
			dsn = filepath.Join(fb.Dir(), "ncaabb.db")
		}
		b, err := NewSQLiteBackend(dsn)
		if err != nil {
			return nil, err
		}
		if path := sqlitePath(dsn); writer && path != "" {
			if err := b.Lock(path); err != nil {
				b.Close() // nolint:errcheck
				return nil, err
			}
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q (must be %q or %q)", typ, TypeFile, TypeSQLite)
	}
}

// sqlitePath returns the file behind dsn, or "" for in-memory databases
func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}
