// Package snapshot holds per-key scrape results and decides which keys still
// need fetching.
//
// A Set maps a key (an ISO-8601 date, or a matchup ID) to an Entry. An absent
// key was never fetched, a failed Entry is retried on the next run, and a
// complete Entry with zero rows is a day that legitimately had nothing to
// scrape. FindMissing compares a Set against the expected keys and columns
// and returns the sorted list of keys to (re)fetch.
package snapshot
