package model

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Document is one extracted statement: every row's values by column.
// A column missing from a row's map is absent.
type Document struct {
	Type   StatementType
	Year   int
	Source string // file name or upload name, informational
	Values map[string]map[Column]decimal.NullDecimal
}

// Value returns the value of code in column c.
func (d Document) Value(code string, c Column) decimal.NullDecimal {
	return d.Values[code][c]
}

// ColumnValues returns the code→value mapping of one column. Rows without
// a value in c are left out.
func (d Document) ColumnValues(c Column) map[string]decimal.NullDecimal {
	out := make(map[string]decimal.NullDecimal, len(d.Values))
	for code, cols := range d.Values {
		if v, ok := cols[c]; ok && v.Valid {
			out[code] = v
		}
	}
	return out
}

// Codes returns the row codes carrying any column, numerically ordered
// where the codes are numbers.
func (d Document) Codes() []string {
	codes := make([]string, 0, len(d.Values))
	for code := range d.Values {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return lessCode(codes[i], codes[j]) })
	return codes
}

// Set stores a value, allocating maps as needed.
func (d *Document) Set(code string, c Column, v decimal.NullDecimal) {
	if d.Values == nil {
		d.Values = make(map[string]map[Column]decimal.NullDecimal)
	}
	cols, ok := d.Values[code]
	if !ok {
		cols = make(map[Column]decimal.NullDecimal)
		d.Values[code] = cols
	}
	cols[c] = v
}

func lessCode(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
