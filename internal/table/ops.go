package table

import "fmt"

// LeftJoin keeps every row of left and attaches the columns of the first right
// row with the same key. Left rows without a match get nulls for the right
// columns, so a page missing a team never drops that team.
//
// Right columns that already exist on the left are not duplicated: the right
// value only fills cells that are null on the left.
func LeftJoin(left, right Table, on ...string) (Table, error) {
	if len(on) == 0 {
		return Table{}, fmt.Errorf("left join needs at least one key column")
	}
	leftKeys, err := left.indexes(on)
	if err != nil {
		return Table{}, fmt.Errorf("left side: %w", err)
	}
	rightKeys, err := right.indexes(on)
	if err != nil {
		return Table{}, fmt.Errorf("right side: %w", err)
	}

	isKey := make(map[string]bool, len(on))
	for _, k := range on {
		isKey[k] = true
	}

	columns := append([]string{}, left.Columns...)
	// for each right column: target index in output, and whether it is a coalesce
	target := make([]int, len(right.Columns))
	shared := make([]bool, len(right.Columns))
	for i, c := range right.Columns {
		target[i] = -1
		if isKey[c] {
			continue
		}
		if idx := left.Index(c); idx >= 0 {
			target[i] = idx
			shared[i] = true
			continue
		}
		target[i] = len(columns)
		columns = append(columns, c)
	}

	lookup := make(map[string][]Cell, len(right.Rows))
	for _, row := range right.Rows {
		key, ok := keyOf(row, rightKeys)
		if !ok {
			continue
		}
		if _, exists := lookup[key]; !exists {
			lookup[key] = row
		}
	}

	out := New(columns...)
	for _, lrow := range left.Rows {
		row := make([]Cell, len(columns))
		copy(row, lrow)

		if key, ok := keyOf(lrow, leftKeys); ok {
			if rrow, found := lookup[key]; found {
				for i, cell := range rrow {
					switch {
					case target[i] < 0:
					case shared[i]:
						if !row[target[i]].Valid {
							row[target[i]] = cell
						}
					default:
						row[target[i]] = cell
					}
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Concat stacks tables vertically. The result's columns are the union of all
// input columns in order of first appearance; absent cells are null.
func Concat(tables ...Table) Table {
	var columns []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	out := New(columns...)
	for _, t := range tables {
		pos := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			pos[i] = out.Index(c)
		}
		for _, row := range t.Rows {
			cells := make([]Cell, len(columns))
			for i, cell := range row {
				cells[pos[i]] = cell
			}
			out.Rows = append(out.Rows, cells)
		}
	}
	return out
}

// DropNullKeys removes rows with a null or blank cell in any key column.
// A missing key column removes every row.
func (t Table) DropNullKeys(key ...string) Table {
	idxs, err := t.indexes(key)
	if err != nil {
		return New(t.Columns...)
	}
	return t.Filter(func(i int) bool {
		_, ok := keyOf(t.Rows[i], idxs)
		return ok
	})
}

// DedupFirst removes rows whose key was already seen, keeping the first.
// Rows with a null key are kept untouched; call DropNullKeys first to discard them.
func (t Table) DedupFirst(key ...string) Table {
	idxs, err := t.indexes(key)
	if err != nil {
		return t.Clone()
	}
	seen := make(map[string]bool, len(t.Rows))
	return t.Filter(func(i int) bool {
		k, ok := keyOf(t.Rows[i], idxs)
		if !ok {
			return true
		}
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
}

// Append merges newly scraped rows into a cumulative table. New rows come
// first so they win on a natural-key conflict; rows with a null key cell are
// discarded before deduplication. Survivors of existing keep their order.
func Append(existing, newRows Table, key ...string) Table {
	return Concat(newRows, existing).DropNullKeys(key...).DedupFirst(key...)
}
