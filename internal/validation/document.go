package validation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/id"
	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/statement"
)

// ValidateDocument builds one tree per rule column of doc and validates
// each, then runs the balance sheet row checks. RunID is left empty for the
// caller to assign.
func (e *Engine) ValidateDocument(doc model.Document, tolerance int64) (*DocumentReport, error) {
	return e.ValidateColumns(doc, tolerance, nil)
}

// ValidateColumns is ValidateDocument over a chosen set of columns. Columns
// the statement type lacks are ignored; when none remain, the type's rule
// columns are used.
func (e *Engine) ValidateColumns(doc model.Document, tolerance int64, columns []model.Column) (*DocumentReport, error) {
	if err := checkTolerance(tolerance); err != nil {
		return nil, err
	}
	sc, ok := e.catalogs.Schema(doc.Type)
	if !ok {
		return nil, &InvalidArgumentError{
			Argument: "statement_type",
			Err:      &model.UnknownStatementTypeError{Value: string(doc.Type)},
		}
	}

	out := &DocumentReport{
		Type:      doc.Type,
		Year:      doc.Year,
		Source:    doc.Source,
		Tolerance: tolerance,
		IsValid:   true,
	}
	for _, col := range selectColumns(doc.Type, columns) {
		tree, err := sc.Build(doc.ColumnValues(col))
		if err != nil {
			if errors.Is(err, statement.ErrUnknownCode) {
				return nil, &InvalidArgumentError{Argument: "document", Err: err}
			}
			return nil, fmt.Errorf("building %s tree: %w", col, err)
		}
		report, err := e.Validate(tree, tolerance)
		if err != nil {
			return nil, fmt.Errorf("validating %s column %s: %w", doc.Type, col, err)
		}
		report.Column = col
		out.Columns = append(out.Columns, *report)
		if !report.IsValid {
			out.IsValid = false
		}
	}

	if doc.Type == model.BalanceSheet {
		out.RowChecks = rowChecks(sc, doc, decimal.NewFromInt(tolerance))
		for _, r := range out.RowChecks {
			if r.Status == StatusFailed {
				out.IsValid = false
			}
		}
	}
	return out, nil
}

// rowChecks asserts netto = brutto - |korekce| on every row where both
// brutto and korekce were extracted. Korekce is compared by magnitude.
func rowChecks(sc *schema.Schema, doc model.Document, tolerance decimal.Decimal) []RuleResult {
	var out []RuleResult
	for _, row := range sc.Rows() {
		brutto := doc.Value(row.Code, model.ColumnBrutto)
		korekce := doc.Value(row.Code, model.ColumnKorekce)
		if !brutto.Valid || !korekce.Valid {
			continue
		}
		res := RuleResult{
			RuleID:     id.FormatRuleID(string(KindRowCheck), row.Code),
			Kind:       KindRowCheck,
			Target:     row.Code,
			Expression: "brutto-|korekce|",
			Actual:     doc.Value(row.Code, model.ColumnNetto),
		}
		if !res.Actual.Valid {
			res.Status = StatusSkipped
			res.Missing = []string{row.Code}
			out = append(out, res)
			continue
		}
		expected := brutto.Decimal.Sub(korekce.Decimal.Abs())
		res.Expected = model.Amount(expected)
		diff := res.Actual.Decimal.Sub(expected)
		res.Difference = model.Amount(diff)
		res.Passed = diff.Abs().LessThanOrEqual(tolerance)
		res.Status = StatusFailed
		if res.Passed {
			res.Status = StatusPassed
		}
		out = append(out, res)
	}
	return out
}

func selectColumns(typ model.StatementType, columns []model.Column) []model.Column {
	var out []model.Column
	for _, c := range columns {
		if typ.HasColumn(c) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return typ.RuleColumns()
	}
	return out
}
