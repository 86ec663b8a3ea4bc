package dataset

import (
	"slices"
	"strings"

	"github.com/spf13/cast"
)

// Row is one record, keyed by column name. Cells hold the text as read.
type Row map[string]string

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an in-memory dataset with a fixed column order.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates a table with the given columns and rows.
func New(name string, columns []string, rows []Row) *Table {
	return &Table{Name: name, Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table carries the named column.
func (t *Table) Has(column string) bool {
	return slices.Contains(t.Columns, column)
}

// Missing returns the required columns the table lacks, in the given order.
func (t *Table) Missing(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Filter returns a new table holding the rows for which keep returns true.
// Rows are shared with the receiver, which is never modified.
func (t *Table) Filter(keep func(Row) bool) *Table {
	rows := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Rows: rows}
}

// Map returns a new table with fn applied to a copy of every row.
func (t *Table) Map(fn func(Row) Row) *Table {
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = fn(r.Clone())
	}
	return &Table{Name: t.Name, Columns: slices.Clone(t.Columns), Rows: rows}
}

// DropColumns returns a new table without the named columns.
func (t *Table) DropColumns(names ...string) *Table {
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !slices.Contains(names, c) {
			cols = append(cols, c)
		}
	}
	rows := make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out := r.Clone()
		for _, n := range names {
			delete(out, n)
		}
		rows[i] = out
	}
	return &Table{Name: t.Name, Columns: cols, Rows: rows}
}

// Values returns the cells of a row in column order.
func (t *Table) Values(r Row) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = r[c]
	}
	return out
}

// IsNull reports whether a cell is empty or holds one of the null spellings
// that spreadsheet and dataframe exports produce.
func IsNull(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none", "null", "<na>":
		return true
	}
	return false
}

// Number parses a numeric cell. Integer and decimal spellings are accepted.
func Number(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if IsNull(v) {
		return 0, false
	}
	n, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Truthy coerces a boolean-or-timestamp cell. Null, "false" in any case and
// any number equal to zero are false; every other value, including "f",
// "no" and "off", is true.
func Truthy(v string) bool {
	v = strings.TrimSpace(v)
	if IsNull(v) || strings.EqualFold(v, "false") {
		return false
	}
	if n, ok := Number(v); ok {
		return n != 0
	}
	return true
}
