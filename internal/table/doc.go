// Package table provides the small in-memory tabular type shared by the
// scrapers, the merge engine and the persisted stores.
//
// A Table is an ordered list of column names plus rows of nullable string
// cells. Values scraped from pages are kept as text; conversion to numbers is
// left to downstream consumers. The package implements the handful of
// relational operations the pipeline needs: left joins on composite keys,
// column-unioning concatenation, null-key filtering and first-wins
// deduplication.
package table
