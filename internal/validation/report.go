package validation

import (
	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/id"
	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/rules"
)

// Status is the outcome of one rule.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// KindRowCheck marks per-row column checks (netto = brutto - |korekce|).
// They come from document validation, never from a catalog.
const KindRowCheck rules.Kind = "row"

// RuleResult is the evaluation of one rule. Expected, Actual and Difference
// are absent when the rule was skipped for missing values; Missing lists
// those codes.
type RuleResult struct {
	RuleID     string              `json:"rule_id"`
	Kind       rules.Kind          `json:"kind"`
	Target     string              `json:"target"`
	Expression string              `json:"expression"`
	Expected   decimal.NullDecimal `json:"expected"`
	Actual     decimal.NullDecimal `json:"actual"`
	Difference decimal.NullDecimal `json:"difference"`
	Passed     bool                `json:"passed"`
	Status     Status              `json:"status"`
	Missing    []string            `json:"missing,omitempty"`
}

// Report is the result of validating one tree.
type Report struct {
	StatementType model.StatementType `json:"statement_type"`
	Column        model.Column        `json:"column,omitempty"`
	Tolerance     int64               `json:"tolerance"`
	Results       []RuleResult        `json:"results"`
	Skipped       []string            `json:"skipped"`
	IsValid       bool                `json:"is_valid"`
}

// Counts returns the number of passed, failed and skipped results.
func (r *Report) Counts() (passed, failed, skipped int) {
	return count(r.Results)
}

// Failures returns the failed results in catalog order.
func (r *Report) Failures() []RuleResult {
	return filter(r.Results, StatusFailed)
}

// DocumentReport covers every rule column of one document plus the row checks.
type DocumentReport struct {
	RunID     string              `json:"run_id,omitempty"`
	Type      model.StatementType `json:"statement_type"`
	Year      int                 `json:"year,omitempty"`
	Source    string              `json:"source,omitempty"`
	Tolerance int64               `json:"tolerance"`
	Columns   []Report            `json:"columns"`
	RowChecks []RuleResult        `json:"row_checks,omitempty"`
	IsValid   bool                `json:"is_valid"`
}

// Counts sums passed, failed and skipped results across columns and row checks.
func (d *DocumentReport) Counts() (passed, failed, skipped int) {
	passed, failed, skipped = count(d.RowChecks)
	for i := range d.Columns {
		p, f, s := d.Columns[i].Counts()
		passed += p
		failed += f
		skipped += s
	}
	return passed, failed, skipped
}

// FailedRules returns the IDs of failed results qualified by column, e.g.
// "sum:37@netto", followed by failed row checks.
func (d *DocumentReport) FailedRules() []string {
	var out []string
	for i := range d.Columns {
		for _, r := range d.Columns[i].Failures() {
			out = append(out, id.ColumnRuleID(r.RuleID, string(d.Columns[i].Column)))
		}
	}
	for _, r := range filter(d.RowChecks, StatusFailed) {
		out = append(out, r.RuleID)
	}
	return out
}

// Column returns the report of one column.
func (d *DocumentReport) Column(c model.Column) (*Report, bool) {
	for i := range d.Columns {
		if d.Columns[i].Column == c {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

func count(results []RuleResult) (passed, failed, skipped int) {
	for _, r := range results {
		switch r.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

func filter(results []RuleResult, status Status) []RuleResult {
	var out []RuleResult
	for _, r := range results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}
