package crosscheck

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/validation"
)

func amt(v int64) decimal.NullDecimal {
	return model.Amount(decimal.NewFromInt(v))
}

func bsEntry(year int, netto99, nettoMinule99 int64) Entry {
	doc := model.Document{Type: model.BalanceSheet, Year: year}
	doc.Set("99", model.ColumnNetto, amt(netto99))
	doc.Set("99", model.ColumnNettoMinule, amt(nettoMinule99))
	return Entry{Document: doc, Report: &validation.DocumentReport{IsValid: true}}
}

func plEntry(year int, current53, previous53 int64) Entry {
	doc := model.Document{Type: model.ProfitAndLoss, Year: year}
	doc.Set("53", model.ColumnCurrent, amt(current53))
	doc.Set("53", model.ColumnPrevious, amt(previous53))
	return Entry{Document: doc, Report: &validation.DocumentReport{IsValid: true}}
}

func checker(t *testing.T) *Checker {
	t.Helper()
	set, err := rules.DefaultSet()
	require.NoError(t, err)
	return NewChecker(set)
}

func TestCheck_Consistent(t *testing.T) {
	issues, err := checker(t).Check([]Entry{
		bsEntry(2023, 80, 50),
		bsEntry(2024, 100, 80),
		plEntry(2023, 80, 50),
		plEntry(2024, 100, 80),
	}, 0)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheck_WithinYear(t *testing.T) {
	issues, err := checker(t).Check([]Entry{
		bsEntry(2024, 100, 0),
		plEntry(2024, 97, 0),
	}, 1)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	is := issues[0]
	assert.Equal(t, KindWithinYear, is.Kind)
	assert.Equal(t, 2024, is.Year)
	assert.Equal(t, "99", is.Code)
	assert.True(t, is.Difference.Equal(decimal.NewFromInt(3)))
	assert.Equal(t,
		"Rok 2024: Rozvaha ř. 99 (Výsledek hospodaření běžného účetního období (+/-)) 100 ≠ Výsledovka ř. 53 (Výsledek hospodaření po zdanění (+/-)) 97. Rozdíl 3 > tolerance 1.",
		is.Message)
}

func TestCheck_WithinTolerance(t *testing.T) {
	issues, err := checker(t).Check([]Entry{bsEntry(2024, 100, 0), plEntry(2024, 99, 0)}, 1)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheck_YearOverYear(t *testing.T) {
	issues, err := checker(t).Check([]Entry{
		bsEntry(2023, 80, 0),
		bsEntry(2024, 100, 75),
		plEntry(2023, 80, 0),
		plEntry(2024, 100, 81),
	}, 0)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	assert.Equal(t, KindYearOverYear, issues[0].Kind)
	assert.Equal(t, model.BalanceSheet, issues[0].Type)
	assert.Equal(t,
		"Rozvaha, ř. 99 (Výsledek hospodaření běžného účetního období (+/-)): rok 2024 (sl. minulé) 75 ≠ rok 2023 (sl. běžné) 80. Rozdíl 5 > tolerance 0.",
		issues[0].Message)

	assert.Equal(t, model.ProfitAndLoss, issues[1].Type)
	assert.Contains(t, issues[1].Message, "Výsledovka, ř. 53")
	assert.True(t, issues[1].Difference.Equal(decimal.NewFromInt(1)))
}

func TestCheck_AbsentSidesSkipped(t *testing.T) {
	bs := bsEntry(2024, 100, 0)
	bs.Document.Set("99", model.ColumnNetto, model.Absent())
	issues, err := checker(t).Check([]Entry{bs, plEntry(2024, 1, 0)}, 0)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestCheck_NegativeTolerance(t *testing.T) {
	_, err := checker(t).Check(nil, -1)
	assert.ErrorIs(t, err, validation.ErrInvalidArgument)
}

func TestBestPerYear(t *testing.T) {
	invalid := bsEntry(2024, 1, 0)
	invalid.Report = &validation.DocumentReport{IsValid: false, RowChecks: []validation.RuleResult{{Status: validation.StatusFailed}}}
	valid := bsEntry(2024, 2, 0)
	worse := bsEntry(2023, 3, 0)
	worse.Report = &validation.DocumentReport{RowChecks: []validation.RuleResult{
		{Status: validation.StatusFailed}, {Status: validation.StatusFailed},
	}}
	fewer := bsEntry(2023, 4, 0)
	fewer.Report = &validation.DocumentReport{RowChecks: []validation.RuleResult{{Status: validation.StatusFailed}}}
	noYear := bsEntry(0, 5, 0)

	best := BestPerYear([]Entry{invalid, valid, worse, fewer, noYear, plEntry(2024, 9, 0)}, model.BalanceSheet)
	require.Len(t, best, 2)
	assert.Equal(t, "2", best[2024].Document.Value("99", model.ColumnNetto).Decimal.String())
	assert.Equal(t, "4", best[2023].Document.Value("99", model.ColumnNetto).Decimal.String())
}

func TestLabelFallback(t *testing.T) {
	c := NewChecker(nil)
	assert.Equal(t, "ř. 99", c.label(model.BalanceSheet, "99"))
}
