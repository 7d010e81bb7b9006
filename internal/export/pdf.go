package export

import (
	"bytes"
	"fmt"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/valuagent/valuagent/internal/validation"
)

// BuildPDF renders a one-page summary: the counts, every failed or skipped
// result and the overall status. Core PDF fonts lack Czech glyphs, so text
// is folded to ASCII.
func BuildPDF(report *validation.DocumentReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, ascii(report.Type.Label()+" Validation Report"))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	if report.Year != 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Year: %d", report.Year))
		pdf.Ln(5)
	}
	if report.RunID != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Run: %s", report.RunID))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Tolerance: %d", report.Tolerance))
	pdf.Ln(5)
	passed, failed, skipped := report.Counts()
	pdf.Cell(0, 6, fmt.Sprintf("Passed: %d  Failed: %d  Skipped: %d", passed, failed, skipped))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Column", "1", 0, "C", false, 0, "")
	pdf.CellFormat(70, 6, "Rule", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Status", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Expected", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Actual", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)

	row := func(column string, res validation.RuleResult) {
		pdf.CellFormat(30, 6, ascii(column), "1", 0, "L", false, 0, "")
		pdf.CellFormat(70, 6, truncate(ascii(RuleLine(res)), 45), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(res.Status), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, nullString(res.Expected), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, nullString(res.Actual), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	for _, col := range report.Columns {
		for _, res := range col.Results {
			if res.Status != validation.StatusPassed {
				row(col.Column.Header(), res)
			}
		}
	}
	for _, res := range report.RowChecks {
		if res.Status != validation.StatusPassed {
			row("Row check", res)
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	status := "VALID"
	if !report.IsValid {
		status = "VALIDATION ERRORS"
	}
	pdf.Cell(0, 8, "Overall Status: "+status)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func ascii(s string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(fold, s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func nullString(v decimal.NullDecimal) string {
	if !v.Valid {
		return "-"
	}
	return v.Decimal.String()
}
