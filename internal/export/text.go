package export

import (
	"fmt"
	"strings"

	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/validation"
)

const (
	markPassed  = "✓"
	markFailed  = "✗"
	markSkipped = "–"
)

// Summary renders a plain-text report:
//
//	Rule 3: Row 37 = 38+46+68+71
//	  Netto: ✓
//	  Netto (minulé): ✗ expected 150, actual 151, difference 1
//
// ending with an Overall Status line.
func Summary(r *validation.DocumentReport) string {
	var b strings.Builder
	title := r.Type.Label() + " Validation Report"
	if r.Year != 0 {
		title += fmt.Sprintf(" - Year %d", r.Year)
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	}
	if r.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", r.Source)
	}
	n := 0
	if len(r.Columns) > 0 {
		n = len(r.Columns[0].Results)
	}
	fmt.Fprintf(&b, "Validation rules: %d\n", n)
	fmt.Fprintf(&b, "Tolerance: %d\n\n", r.Tolerance)

	for i := 0; i < n; i++ {
		head := r.Columns[0].Results[i]
		fmt.Fprintf(&b, "Rule %d: %s\n", i+1, RuleLine(head))
		for _, col := range r.Columns {
			if i >= len(col.Results) {
				continue
			}
			fmt.Fprintf(&b, "  %s: %s\n", col.Column.Header(), Outcome(col.Results[i]))
		}
		b.WriteString("\n")
	}

	if len(r.RowChecks) > 0 {
		b.WriteString("Row checks (netto = brutto - |korekce|):\n")
		for _, rc := range r.RowChecks {
			fmt.Fprintf(&b, "  Row %s: %s\n", rc.Target, Outcome(rc))
		}
		b.WriteString("\n")
	}

	passed, failed, skipped := r.Counts()
	fmt.Fprintf(&b, "Passed: %d, failed: %d, skipped: %d\n", passed, failed, skipped)
	b.WriteString("Overall Status: " + OverallStatus(r.IsValid) + "\n")
	return b.String()
}

// RuleLine renders a rule as "Row 37 = 38+46+68+71".
func RuleLine(res validation.RuleResult) string {
	line := fmt.Sprintf("Row %s = %s", res.Target, res.Expression)
	if res.Kind == rules.KindFormula {
		line += " (formula)"
	}
	return line
}

// Outcome renders the mark of a result with its numbers when it did not pass.
func Outcome(res validation.RuleResult) string {
	switch res.Status {
	case validation.StatusPassed:
		return markPassed
	case validation.StatusFailed:
		return fmt.Sprintf("%s expected %s, actual %s, difference %s",
			markFailed, res.Expected.Decimal, res.Actual.Decimal, res.Difference.Decimal)
	case validation.StatusSkipped:
		return fmt.Sprintf("%s missing %s", markSkipped, strings.Join(res.Missing, ", "))
	}
	return string(res.Status)
}

// OverallStatus returns "✓ VALID" or "✗ VALIDATION ERRORS".
func OverallStatus(valid bool) string {
	if valid {
		return markPassed + " VALID"
	}
	return markFailed + " VALIDATION ERRORS"
}
