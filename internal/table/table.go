package table

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Cell is a single nullable value
type Cell = sql.NullString

// Value returns a non-null cell holding s
func Value(s string) Cell {
	return Cell{String: s, Valid: true}
}

// Null returns a null cell
func Null() Cell {
	return Cell{}
}

// Table is an ordered set of named columns and rows of cells.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// New creates an empty table with the given columns
func New(columns ...string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Columns: cols, Rows: make([][]Cell, 0)}
}

// Len returns the number of rows
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Index returns the position of column name, or -1 if absent
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present
func (t Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Missing returns the names that are not columns of t, in argument order
func (t Table) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if t.Index(n) < 0 {
			missing = append(missing, n)
		}
	}
	return missing
}

// AddRow appends a row. Short rows are padded with nulls; long rows are an error.
func (t *Table) AddRow(cells ...Cell) error {
	if len(cells) > len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	row := make([]Cell, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// AddValues appends a row of non-null values
func (t *Table) AddValues(values ...string) error {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Value(v)
	}
	return t.AddRow(cells...)
}

// Get returns the cell at row i in column name. Unknown columns read as null.
func (t Table) Get(i int, name string) Cell {
	idx := t.Index(name)
	if idx < 0 || i < 0 || i >= len(t.Rows) {
		return Null()
	}
	return t.Rows[i][idx]
}

// Column returns a copy of the named column's cells, or nil if absent
func (t Table) Column(name string) []Cell {
	idx := t.Index(name)
	if idx < 0 {
		return nil
	}
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// Select builds a new table from src columns renamed to dst names.
// pairs is a list of (dst, src) column mappings; a src of "" produces a null column.
func (t Table) Select(pairs ...[2]string) (Table, error) {
	dst := make([]string, len(pairs))
	srcIdx := make([]int, len(pairs))
	for i, p := range pairs {
		dst[i] = p[0]
		srcIdx[i] = -1
		if p[1] == "" {
			continue
		}
		srcIdx[i] = t.Index(p[1])
		if srcIdx[i] < 0 {
			return Table{}, fmt.Errorf("column %q not found", p[1])
		}
	}

	out := New(dst...)
	for _, row := range t.Rows {
		cells := make([]Cell, len(pairs))
		for i, idx := range srcIdx {
			if idx >= 0 {
				cells[i] = row[idx]
			}
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, nil
}

// WithConstant returns a copy of t with column name prepended and set to value on every row
func (t Table) WithConstant(name, value string) Table {
	out := New(append([]string{name}, t.Columns...)...)
	for _, row := range t.Rows {
		cells := make([]Cell, 0, len(row)+1)
		cells = append(cells, Value(value))
		cells = append(cells, row...)
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// Transform rewrites every non-null cell of column name in place
func (t *Table) Transform(name string, fn func(string) string) {
	idx := t.Index(name)
	if idx < 0 {
		return
	}
	for _, row := range t.Rows {
		if row[idx].Valid {
			row[idx].String = fn(row[idx].String)
		}
	}
}

// Filter returns the rows for which keep returns true
func (t Table) Filter(keep func(i int) bool) Table {
	out := New(t.Columns...)
	for i, row := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Distinct returns the sorted distinct non-null values of a column
func (t Table) Distinct(name string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, c := range t.Column(name) {
		if c.Valid && !seen[c.String] {
			seen[c.String] = true
			values = append(values, c.String)
		}
	}
	sort.Strings(values)
	return values
}

// Clone returns a deep copy
func (t Table) Clone() Table {
	out := New(t.Columns...)
	for _, row := range t.Rows {
		cp := make([]Cell, len(row))
		copy(cp, row)
		out.Rows = append(out.Rows, cp)
	}
	return out
}

// keyOf builds a composite lookup key. ok is false when any key cell is null or blank.
func keyOf(row []Cell, idxs []int) (key string, ok bool) {
	parts := make([]string, len(idxs))
	for i, idx := range idxs {
		c := row[idx]
		if !c.Valid || strings.TrimSpace(c.String) == "" {
			return "", false
		}
		parts[i] = c.String
	}
	return strings.Join(parts, "\x1f"), true
}

func (t Table) indexes(names []string) ([]int, error) {
	idxs := make([]int, len(names))
	for i, n := range names {
		idxs[i] = t.Index(n)
		if idxs[i] < 0 {
			return nil, fmt.Errorf("key column %q not found", n)
		}
	}
	return idxs, nil
}
