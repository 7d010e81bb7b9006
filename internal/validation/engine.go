// Package validation evaluates rule catalogs against statement trees.
package validation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/statement"
)

// DefaultTolerance is the recommended tolerance in reporting units.
const DefaultTolerance int64 = 1

// Catalogs supplies the immutable rule catalog and schema of each statement
// type. *rules.Set implements it.
type Catalogs interface {
	Catalog(typ model.StatementType) (*rules.Catalog, bool)
	Schema(typ model.StatementType) (*schema.Schema, bool)
}

// Engine evaluates catalogs. It holds no mutable state, so one Engine may
// serve concurrent calls.
type Engine struct {
	catalogs Catalogs
}

// NewEngine returns an engine over catalogs loaded once at startup.
func NewEngine(catalogs Catalogs) *Engine {
	return &Engine{catalogs: catalogs}
}

// Validate runs every rule of the tree's catalog in catalog order.
//
// Mismatches and missing values are reported, not returned as errors.
// Validate fails only with an *InvalidArgumentError (nil tree, negative
// tolerance, unknown statement type) or a *statement.StructuralError when a
// rule references a code the tree does not declare. Both are detected before
// any rule is evaluated.
func (e *Engine) Validate(tree *statement.Tree, tolerance int64) (*Report, error) {
	if tree == nil {
		return nil, &InvalidArgumentError{Argument: "tree", Reason: "nil statement tree"}
	}
	if err := checkTolerance(tolerance); err != nil {
		return nil, err
	}
	catalog, err := e.catalog(tree.Type())
	if err != nil {
		return nil, err
	}

	ruleList := catalog.Rules()
	if err := checkReferences(tree, ruleList); err != nil {
		return nil, err
	}

	tol := decimal.NewFromInt(tolerance)
	report := &Report{
		StatementType: tree.Type(),
		Tolerance:     tolerance,
		Results:       make([]RuleResult, 0, len(ruleList)),
		Skipped:       []string{},
		IsValid:       true,
	}
	for _, r := range ruleList {
		res := evaluate(tree, r, tol)
		switch res.Status {
		case StatusFailed:
			report.IsValid = false
		case StatusSkipped:
			report.Skipped = append(report.Skipped, res.RuleID)
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

func (e *Engine) catalog(typ model.StatementType) (*rules.Catalog, error) {
	c, ok := e.catalogs.Catalog(typ)
	if !ok {
		return nil, &InvalidArgumentError{
			Argument: "statement_type",
			Err:      &model.UnknownStatementTypeError{Value: string(typ)},
		}
	}
	return c, nil
}

// terms returns the right-hand side of a rule. Every rule type must be
// handled here.
func terms(tree *statement.Tree, r rules.Rule) []rules.Term {
	switch r := r.(type) {
	case rules.Hierarchical:
		return rules.SumOf(tree.ChildrenOf(r.Parent))
	case rules.Formula:
		return r.Terms
	default:
		panic(fmt.Sprintf("validation: unhandled rule type %T", r))
	}
}

func checkReferences(tree *statement.Tree, ruleList []rules.Rule) error {
	for _, r := range ruleList {
		if !tree.Has(r.Target()) {
			return &statement.StructuralError{
				Code:   r.Target(),
				Reason: fmt.Sprintf("rule %s references a code missing from the tree", r.ID()),
			}
		}
		rhs := terms(tree, r)
		if len(rhs) == 0 {
			return &statement.StructuralError{
				Code:   r.Target(),
				Reason: fmt.Sprintf("rule %s has no terms in this tree", r.ID()),
			}
		}
		for _, t := range rhs {
			if !tree.Has(t.Code) {
				return &statement.StructuralError{
					Code:   t.Code,
					Reason: fmt.Sprintf("rule %s references a code missing from the tree", r.ID()),
				}
			}
		}
	}
	return nil
}

func evaluate(tree *statement.Tree, r rules.Rule, tolerance decimal.Decimal) RuleResult {
	rhs := terms(tree, r)
	res := RuleResult{
		RuleID:     r.ID(),
		Kind:       r.Kind(),
		Target:     r.Target(),
		Expression: rules.FormatTerms(rhs),
		Actual:     tree.Get(r.Target()),
	}
	if !res.Actual.Valid {
		res.Missing = append(res.Missing, r.Target())
	}

	expected := decimal.Zero
	for _, t := range rhs {
		v := tree.Get(t.Code)
		if !v.Valid {
			res.Missing = appendUnique(res.Missing, t.Code)
			continue
		}
		expected = expected.Add(v.Decimal.Mul(decimal.NewFromInt(t.Coefficient)))
	}
	if len(res.Missing) > 0 {
		res.Status = StatusSkipped
		return res
	}

	diff := res.Actual.Decimal.Sub(expected)
	res.Expected = model.Amount(expected)
	res.Difference = model.Amount(diff)
	res.Passed = diff.Abs().LessThanOrEqual(tolerance)
	res.Status = StatusFailed
	if res.Passed {
		res.Status = StatusPassed
	}
	return res
}

func appendUnique(codes []string, code string) []string {
	for _, c := range codes {
		if c == code {
			return codes
		}
	}
	return append(codes, code)
}
