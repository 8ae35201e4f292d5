// Package dataset holds the tabular data model shared by the upload pipeline
// and the analytics engine: a schema-aware table of loosely typed cells, the
// CSV reader that produces it, the normalization pass every computation
// assumes, and the handle store that keeps normalized tables addressable.
package dataset

import (
	"strings"
	"time"
)

// Value is a single table cell. The raw text is always retained; the numeric
// and date interpretations are present only when their ok bit is set, so a
// failed coercion is an explicit missing value rather than a zero.
type Value struct {
	Raw    string    `json:"raw"`
	Num    float64   `json:"num,omitempty"`
	NumOK  bool      `json:"num_ok,omitempty"`
	Date   time.Time `json:"date,omitempty"`
	DateOK bool      `json:"date_ok,omitempty"`
}

// StringValue returns a Value carrying only raw text.
func StringValue(raw string) Value {
	return Value{Raw: raw}
}

// NumberValue returns a Value carrying a parsed number.
func NumberValue(raw string, n float64) Value {
	return Value{Raw: raw, Num: n, NumOK: true}
}

// DateValue returns a Value carrying a parsed date.
func DateValue(raw string, d time.Time) Value {
	return Value{Raw: raw, Date: d, DateOK: true}
}

// Table is an ordered set of named columns over row-major cells. Every row
// has exactly len(Columns) cells. Tables are treated as immutable once
// normalized; computations build new tables or derived structures instead of
// mutating in place.
type Table struct {
	Columns []string  `json:"columns"`
	Rows    [][]Value `json:"rows"`
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column). The ok result is false when the
// column does not exist.
func (t *Table) Cell(row int, column string) (Value, bool) {
	idx := t.ColumnIndex(column)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return Value{}, false
	}
	return t.Rows[row][idx], true
}

// expectedColumns is the fixed column vocabulary the analytics engine
// understands. Uploads carrying none of these are rejected before the engine
// ever sees them.
var expectedColumns = []string{
	"date", "item", "sku", "units_sold",
	"revenue", "inventory_on_hand", "category", "expenses",
}

// HasExpected reports whether at least one expected column is present.
func HasExpected(t *Table) bool {
	for _, c := range expectedColumns {
		if t.HasColumn(c) {
			return true
		}
	}
	return false
}

// RecentRows renders up to limit rows as raw string records, preserving
// column order. Used to build the bounded sample handed to the external
// answering service.
func (t *Table) RecentRows(limit int) []map[string]string {
	if limit > len(t.Rows) {
		limit = len(t.Rows)
	}
	out := make([]map[string]string, 0, limit)
	for r := 0; r < limit; r++ {
		rec := make(map[string]string, len(t.Columns))
		for c, name := range t.Columns {
			rec[name] = t.Rows[r][c].Raw
		}
		out = append(out, rec)
	}
	return out
}

// cleanColumn trims surrounding whitespace and lower-cases a column name.
func cleanColumn(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
