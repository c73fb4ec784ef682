package snapshot

import (
	"sort"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// Status records the outcome of the last fetch for a key
type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Entry is the stored value for one key
type Entry struct {
	Status    Status      `json:"status"`
	Table     table.Table `json:"table"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// Complete wraps a successfully fetched table. A zero-row table is still complete.
func Complete(t table.Table) Entry {
	return Entry{Status: StatusComplete, Table: t, FetchedAt: time.Now().UTC()}
}

// Failed marks a key whose fetch produced nothing usable
func Failed() Entry {
	return Entry{Status: StatusFailed, FetchedAt: time.Now().UTC()}
}

// IsFailed reports whether the entry must be retried regardless of columns
func (e Entry) IsFailed() bool {
	return e.Status != StatusComplete
}

// Set maps keys to entries
type Set map[string]Entry

// NewSet creates an empty set
func NewSet() Set {
	return make(Set)
}

// Upsert inserts or replaces the entry for key
func (s Set) Upsert(key string, e Entry) {
	s[key] = e
}

// Keys returns all keys in ascending order
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FailedKeys returns the keys whose last fetch failed, ascending
func (s Set) FailedKeys() []string {
	keys := make([]string, 0)
	for k, e := range s {
		if e.IsFailed() {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Rows returns the total number of rows across all entries
func (s Set) Rows() int {
	n := 0
	for _, e := range s {
		n += e.Table.Len()
	}
	return n
}
