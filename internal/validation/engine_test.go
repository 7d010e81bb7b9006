package validation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/statement"
)

func amt(v int64) decimal.NullDecimal {
	return model.Amount(decimal.NewFromInt(v))
}

// testEngine has a two-root balance sheet (Assets = A1 + A2, Liabilities =
// L1, Assets = Liabilities) and a flat P&L (OperatingProfit = Revenue -
// Expenses).
func testEngine(t *testing.T) *Engine {
	t.Helper()
	bs, err := schema.New(model.BalanceSheet, []schema.Row{
		{Code: "Assets"},
		{Code: "A1", Parent: "Assets"},
		{Code: "A2", Parent: "Assets"},
		{Code: "Liabilities"},
		{Code: "L1", Parent: "Liabilities"},
	})
	require.NoError(t, err)
	pl, err := schema.New(model.ProfitAndLoss, []schema.Row{
		{Code: "Revenue"},
		{Code: "Expenses"},
		{Code: "OperatingProfit"},
	})
	require.NoError(t, err)

	set, err := rules.NewSet([]*schema.Schema{bs, pl}, rules.Formulas{
		model.BalanceSheet:  {{Name: "balance", Target: "Assets", Expression: "Liabilities"}},
		model.ProfitAndLoss: {{Name: "operating-profit", Target: "OperatingProfit", Expression: "Revenue - Expenses"}},
	})
	require.NoError(t, err)
	return NewEngine(set)
}

func balanceSheet(t *testing.T, e *Engine, assets int64) *statement.Tree {
	t.Helper()
	sc, ok := e.catalogs.Schema(model.BalanceSheet)
	require.True(t, ok)
	tree, err := sc.Build(map[string]decimal.NullDecimal{
		"Assets":      amt(assets),
		"A1":          amt(100),
		"A2":          amt(50),
		"Liabilities": amt(150),
		"L1":          amt(150),
	})
	require.NoError(t, err)
	return tree
}

func result(t *testing.T, r *Report, ruleID string) RuleResult {
	t.Helper()
	for _, res := range r.Results {
		if res.RuleID == ruleID {
			return res
		}
	}
	t.Fatalf("no result for %s", ruleID)
	return RuleResult{}
}

func TestValidate_AllHold(t *testing.T) {
	e := testEngine(t)
	report, err := e.Validate(balanceSheet(t, e, 150), 0)
	require.NoError(t, err)

	assert.True(t, report.IsValid)
	assert.Empty(t, report.Skipped)
	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.True(t, res.Passed, res.RuleID)
		assert.Equal(t, StatusPassed, res.Status)
	}

	assets := result(t, report, "sum:Assets")
	assert.Equal(t, rules.KindHierarchical, assets.Kind)
	assert.Equal(t, "A1+A2", assets.Expression)
	assert.True(t, assets.Expected.Decimal.Equal(decimal.NewFromInt(150)))
	assert.True(t, assets.Actual.Decimal.Equal(decimal.NewFromInt(150)))
	assert.True(t, assets.Difference.Decimal.IsZero())
}

func TestValidate_OffByOne(t *testing.T) {
	e := testEngine(t)
	report, err := e.Validate(balanceSheet(t, e, 151), 0)
	require.NoError(t, err)

	assets := result(t, report, "sum:Assets")
	assert.False(t, assets.Passed)
	assert.Equal(t, StatusFailed, assets.Status)
	assert.True(t, assets.Difference.Decimal.Equal(decimal.NewFromInt(1)))
	assert.False(t, report.IsValid)
	assert.Len(t, report.Failures(), 2)
}

func TestValidate_OffByOneWithinTolerance(t *testing.T) {
	e := testEngine(t)
	report, err := e.Validate(balanceSheet(t, e, 151), 1)
	require.NoError(t, err)

	assert.True(t, result(t, report, "sum:Assets").Passed)
	assert.True(t, report.IsValid)
	assert.Equal(t, int64(1), report.Tolerance)
}

func TestValidate_NegativeDifference(t *testing.T) {
	e := testEngine(t)
	report, err := e.Validate(balanceSheet(t, e, 148), 1)
	require.NoError(t, err)

	assets := result(t, report, "sum:Assets")
	assert.True(t, assets.Difference.Decimal.Equal(decimal.NewFromInt(-2)))
	assert.False(t, assets.Passed)
}

func TestValidate_AbsentValueSkips(t *testing.T) {
	e := testEngine(t)
	sc, _ := e.catalogs.Schema(model.ProfitAndLoss)
	tree, err := sc.Build(map[string]decimal.NullDecimal{
		"Revenue":  amt(1000),
		"Expenses": amt(800),
	})
	require.NoError(t, err)

	report, err := e.Validate(tree, 0)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	res := report.Results[0]
	assert.Equal(t, "formula:operating-profit", res.RuleID)
	assert.Equal(t, StatusSkipped, res.Status)
	assert.False(t, res.Passed)
	assert.Equal(t, []string{"OperatingProfit"}, res.Missing)
	assert.False(t, res.Expected.Valid)
	assert.False(t, res.Difference.Valid)

	assert.True(t, report.IsValid)
	assert.Equal(t, []string{"formula:operating-profit"}, report.Skipped)
	p, f, s := report.Counts()
	assert.Equal(t, [3]int{0, 0, 1}, [3]int{p, f, s})
}

func TestValidate_AbsentIsNotZero(t *testing.T) {
	e := testEngine(t)
	sc, _ := e.catalogs.Schema(model.ProfitAndLoss)

	absent, err := sc.Build(map[string]decimal.NullDecimal{"Revenue": amt(0), "OperatingProfit": amt(0)})
	require.NoError(t, err)
	report, err := e.Validate(absent, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, report.Results[0].Status)
	assert.Equal(t, []string{"Expenses"}, report.Results[0].Missing)

	zero, err := sc.Build(map[string]decimal.NullDecimal{"Revenue": amt(0), "Expenses": amt(0), "OperatingProfit": amt(0)})
	require.NoError(t, err)
	report, err = e.Validate(zero, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusPassed, report.Results[0].Status)
}

func TestValidate_SkippedDoesNotMaskFailure(t *testing.T) {
	e := testEngine(t)
	sc, _ := e.catalogs.Schema(model.BalanceSheet)
	tree, err := sc.Build(map[string]decimal.NullDecimal{
		"Assets": amt(151), "A1": amt(100), "A2": amt(50),
	})
	require.NoError(t, err)

	report, err := e.Validate(tree, 0)
	require.NoError(t, err)
	assert.False(t, report.IsValid)
	assert.Equal(t, []string{"sum:Liabilities", "formula:balance"}, report.Skipped)
}

func TestValidate_ResultsFollowCatalogOrder(t *testing.T) {
	e := testEngine(t)
	report, err := e.Validate(balanceSheet(t, e, 150), 0)
	require.NoError(t, err)

	c, _ := e.catalogs.Catalog(model.BalanceSheet)
	require.Len(t, report.Results, c.Len())
	for i, r := range c.Rules() {
		assert.Equal(t, r.ID(), report.Results[i].RuleID)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	e := testEngine(t)
	tree := balanceSheet(t, e, 151)

	first, err := e.Validate(tree, 0)
	require.NoError(t, err)
	second, err := e.Validate(tree, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 151, int(tree.Get("Assets").Decimal.IntPart()))
}

func TestValidate_ToleranceMonotonic(t *testing.T) {
	e := testEngine(t)
	for _, assets := range []int64{140, 148, 150, 151, 153} {
		tree := balanceSheet(t, e, assets)
		passedAt := map[string]bool{}
		for tol := int64(0); tol <= 12; tol++ {
			report, err := e.Validate(tree, tol)
			require.NoError(t, err)
			for _, res := range report.Results {
				if passedAt[res.RuleID] {
					assert.True(t, res.Passed, "%s at tolerance %d", res.RuleID, tol)
				}
				if res.Passed {
					passedAt[res.RuleID] = true
				}
			}
		}
	}
}

func TestValidate_InvalidArgument(t *testing.T) {
	e := testEngine(t)

	_, err := e.Validate(balanceSheet(t, e, 150), -1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	var iae *InvalidArgumentError
	require.ErrorAs(t, err, &iae)
	assert.Equal(t, "tolerance", iae.Argument)

	_, err = e.Validate(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValidate_UnknownStatementType(t *testing.T) {
	e := testEngine(t)
	tree, err := statement.NewTree("cashflow", []model.LineItem{{Code: "1"}}, []string{"1"})
	require.NoError(t, err)

	_, err = e.Validate(tree, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	var ute *model.UnknownStatementTypeError
	assert.ErrorAs(t, err, &ute)
}

func TestValidate_StructuralError(t *testing.T) {
	e := testEngine(t)

	// Liabilities is declared by the schema but missing from this tree.
	tree, err := statement.NewTree(model.BalanceSheet, []model.LineItem{
		{Code: "Assets", Value: amt(150), Children: []string{"A1", "A2"}},
		{Code: "A1", Value: amt(100)},
		{Code: "A2", Value: amt(50)},
	}, []string{"Assets"})
	require.NoError(t, err)

	report, err := e.Validate(tree, 0)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, statement.ErrStructural)
	var se *statement.StructuralError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Liabilities", se.Code)
}

func TestValidate_StructuralErrorParentWithoutChildren(t *testing.T) {
	e := testEngine(t)
	tree, err := statement.NewTree(model.BalanceSheet, []model.LineItem{
		{Code: "Assets", Value: amt(150)},
		{Code: "Liabilities", Value: amt(150), Children: []string{"L1"}},
		{Code: "L1", Value: amt(150)},
	}, []string{"Assets", "Liabilities"})
	require.NoError(t, err)

	_, err = e.Validate(tree, 0)
	assert.ErrorIs(t, err, statement.ErrStructural)
}

func TestValidate_Decimals(t *testing.T) {
	e := testEngine(t)
	sc, _ := e.catalogs.Schema(model.ProfitAndLoss)
	tree, err := sc.Build(map[string]decimal.NullDecimal{
		"Revenue":         model.Amount(decimal.RequireFromString("0.3")),
		"Expenses":        model.Amount(decimal.RequireFromString("0.1")),
		"OperatingProfit": model.Amount(decimal.RequireFromString("0.2")),
	})
	require.NoError(t, err)

	report, err := e.Validate(tree, 0)
	require.NoError(t, err)
	assert.True(t, report.Results[0].Difference.Decimal.IsZero())
	assert.True(t, report.IsValid)
}
