package model

import "github.com/shopspring/decimal"

// LineItem is a single statement row.
type LineItem struct {
	Code     string              // unique within a statement, e.g. "37"
	Mark     string              // statutory designation, e.g. "C." or "B.II.1"
	Label    string              // informational only
	Value    decimal.NullDecimal // Valid == false when the value was not extracted
	Children []string            // declared by the schema, not computed
}

// Present reports whether the item carries a value.
func (li LineItem) Present() bool {
	return li.Value.Valid
}

// IsLeaf reports whether the item has no declared children.
func (li LineItem) IsLeaf() bool {
	return len(li.Children) == 0
}

// Amount wraps a decimal as a present value.
func Amount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Absent is the missing value.
func Absent() decimal.NullDecimal {
	return decimal.NullDecimal{}
}
