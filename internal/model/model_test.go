package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatementType(t *testing.T) {
	tests := []struct {
		in   string
		want StatementType
	}{
		{"rozvaha", BalanceSheet},
		{"Rozvaha", BalanceSheet},
		{"balance_sheet", BalanceSheet},
		{"vzz", ProfitAndLoss},
		{"ziskaztrata", ProfitAndLoss},
		{"vzzcz", ProfitAndLoss},
		{" profit_and_loss ", ProfitAndLoss},
	}
	for _, tt := range tests {
		got, err := ParseStatementType(tt.in)
		require.NoError(t, err, "ParseStatementType(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseStatementType(%q)", tt.in)
	}
}

func TestParseStatementType_Unknown(t *testing.T) {
	_, err := ParseStatementType("cashflow")
	require.Error(t, err)

	var ute *UnknownStatementTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "cashflow", ute.Value)
}

func TestColumns(t *testing.T) {
	assert.Equal(t, []Column{ColumnNetto, ColumnNettoMinule}, BalanceSheet.RuleColumns())
	assert.Len(t, BalanceSheet.Columns(), 4)
	assert.Equal(t, []Column{ColumnCurrent, ColumnPrevious}, ProfitAndLoss.Columns())
	assert.True(t, BalanceSheet.HasColumn(ColumnKorekce))
	assert.False(t, ProfitAndLoss.HasColumn(ColumnNetto))
	assert.Nil(t, StatementType("other").Columns())
}

func TestLineItemPresent(t *testing.T) {
	zero := LineItem{Code: "1", Value: Amount(decimal.Zero)}
	missing := LineItem{Code: "2", Value: Absent()}

	assert.True(t, zero.Present(), "zero is a value")
	assert.False(t, missing.Present())
	assert.True(t, missing.IsLeaf())
}

func TestDocument(t *testing.T) {
	var doc Document
	doc.Set("10", ColumnNetto, Amount(decimal.NewFromInt(5)))
	doc.Set("2", ColumnNetto, Absent())
	doc.Set("2", ColumnBrutto, Amount(decimal.Zero))

	assert.Equal(t, []string{"2", "10"}, doc.Codes())
	assert.True(t, doc.Value("10", ColumnNetto).Valid)
	assert.False(t, doc.Value("2", ColumnNetto).Valid)
	assert.False(t, doc.Value("99", ColumnNetto).Valid)

	netto := doc.ColumnValues(ColumnNetto)
	assert.Len(t, netto, 1)
	assert.Contains(t, netto, "10")

	brutto := doc.ColumnValues(ColumnBrutto)
	require.Contains(t, brutto, "2")
	assert.True(t, brutto["2"].Decimal.IsZero())
}
