package snapshot

import "sort"

// FindMissing returns the expected keys that need fetching, sorted ascending
// without duplicates. A key is missing when it is absent from stored, when its
// entry failed, or when its entry has rows but lacks one of expectedColumns.
//
// Entries with zero rows never fail the column check: a day with no games has
// no columns and is done.
func FindMissing(expected []string, stored Set, expectedColumns []string) []string {
	seen := make(map[string]bool, len(expected))
	missing := make([]string, 0)

	for _, key := range expected {
		if seen[key] {
			continue
		}
		seen[key] = true

		entry, ok := stored[key]
		switch {
		case !ok:
		case entry.IsFailed():
		case entry.Table.Len() > 0 && !entry.Table.Has(expectedColumns...):
		default:
			continue
		}
		missing = append(missing, key)
	}

	sort.Strings(missing)
	return missing
}

// Merge unions several missing-key lists into one sorted list
func Merge(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, l := range lists {
		for _, k := range l {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}
