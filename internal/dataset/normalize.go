package dataset

import (
	"strconv"
	"strings"
	"time"
)

// numericColumns are coerced to number-or-missing during normalization.
var numericColumns = []string{"units_sold", "revenue", "inventory_on_hand", "expenses"}

// dateLayouts are tried in order when coercing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Normalize returns a cleaned copy of the raw table: column names are
// trimmed and lower-cased, the date column is coerced to date-or-sentinel,
// and the known numeric columns are coerced to number-or-missing. Malformed
// cells become missing values; they are never an error. Row count and column
// set are preserved, and all other columns pass through untouched.
func Normalize(raw *Table) *Table {
	t := &Table{
		Columns: make([]string, len(raw.Columns)),
		Rows:    make([][]Value, len(raw.Rows)),
	}
	for i, c := range raw.Columns {
		t.Columns[i] = cleanColumn(c)
	}

	dateIdx := t.ColumnIndex("date")
	numeric := make(map[int]bool)
	for _, c := range numericColumns {
		if idx := t.ColumnIndex(c); idx >= 0 {
			numeric[idx] = true
		}
	}

	for r, rawRow := range raw.Rows {
		row := make([]Value, len(t.Columns))
		for c := range t.Columns {
			var cell Value
			if c < len(rawRow) {
				cell = StringValue(rawRow[c].Raw)
			} else {
				cell = StringValue("")
			}

			switch {
			case c == dateIdx:
				if d, ok := ParseDate(cell.Raw); ok {
					cell = DateValue(cell.Raw, d)
				}
			case numeric[c]:
				if n, ok := ParseNumber(cell.Raw); ok {
					cell = NumberValue(cell.Raw, n)
				}
			}
			row[c] = cell
		}
		t.Rows[r] = row
	}

	return t
}

// ParseDate coerces free-form text to a calendar date. The ok result is
// false for anything unparseable; callers treat that as the not-a-date
// sentinel.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseNumber coerces free-form text to a float. It tolerates currency
// symbols, thousands separators, surrounding whitespace, and accounting-style
// parenthesized negatives. The ok result is false for anything else.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	s = strings.ReplaceAll(s, ",", "")

	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}
