// Package storage persists the pipeline's cumulative state between runs.
//
// Each store is a single named blob holding a gob-encoded Go value (a
// snapshot.Set for the per-date stat and injury stores, the cumulative score
// book for scores). Blobs live in a Backend: FileBackend keeps one .gob file
// per store under the data directory (default ~/.local/share/ncaabb-scrape/)
// and publishes writes with a rename; SQLiteBackend keeps them as rows of a
// single table. A missing blob loads as the empty value.
package storage
