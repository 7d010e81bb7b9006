package model

import (
	"fmt"
	"strings"
)

// StatementType identifies which financial statement a document holds.
type StatementType string

const (
	BalanceSheet  StatementType = "rozvaha"
	ProfitAndLoss StatementType = "vzz"
)

// StatementTypes lists the supported statement types in a stable order.
var StatementTypes = []StatementType{BalanceSheet, ProfitAndLoss}

// UnknownStatementTypeError reports a statement type outside StatementTypes.
type UnknownStatementTypeError struct {
	Value string
}

func (e *UnknownStatementTypeError) Error() string {
	return fmt.Sprintf("unknown statement type %q (use %q or %q)", e.Value, BalanceSheet, ProfitAndLoss)
}

// ParseStatementType accepts the canonical names and the aliases used by
// upload forms and file names.
func ParseStatementType(s string) (StatementType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rozvaha", "balance_sheet":
		return BalanceSheet, nil
	case "vzz", "ziskaztrata", "vzzcz", "profit_and_loss":
		return ProfitAndLoss, nil
	}
	return "", &UnknownStatementTypeError{Value: s}
}

// Label returns the Czech display name.
func (t StatementType) Label() string {
	switch t {
	case BalanceSheet:
		return "Rozvaha"
	case ProfitAndLoss:
		return "Výkaz zisku a ztráty"
	}
	return string(t)
}

// Column names one value column of an extracted statement.
type Column string

const (
	ColumnBrutto      Column = "brutto"
	ColumnKorekce     Column = "korekce"
	ColumnNetto       Column = "netto"
	ColumnNettoMinule Column = "netto_minule"
	ColumnCurrent     Column = "současné"
	ColumnPrevious    Column = "minulé"
)

// Columns returns every column extracted for the statement type, in export order.
func (t StatementType) Columns() []Column {
	switch t {
	case BalanceSheet:
		return []Column{ColumnBrutto, ColumnKorekce, ColumnNetto, ColumnNettoMinule}
	case ProfitAndLoss:
		return []Column{ColumnCurrent, ColumnPrevious}
	}
	return nil
}

// RuleColumns returns the columns the rule catalog is evaluated on.
// Brutto and korekce are left out: sub-rows of those columns are often blank.
func (t StatementType) RuleColumns() []Column {
	switch t {
	case BalanceSheet:
		return []Column{ColumnNetto, ColumnNettoMinule}
	case ProfitAndLoss:
		return []Column{ColumnCurrent, ColumnPrevious}
	}
	return nil
}

// HasColumn reports whether c is one of the statement type's columns.
func (t StatementType) HasColumn(c Column) bool {
	for _, col := range t.Columns() {
		if col == c {
			return true
		}
	}
	return false
}

// Header returns the spreadsheet header for a column.
func (c Column) Header() string {
	switch c {
	case ColumnBrutto:
		return "Brutto"
	case ColumnKorekce:
		return "Korekce"
	case ColumnNetto:
		return "Netto"
	case ColumnNettoMinule:
		return "Netto (minulé)"
	case ColumnCurrent:
		return "Současné"
	case ColumnPrevious:
		return "Minulé"
	}
	return string(c)
}
