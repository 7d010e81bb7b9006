// Package crosscheck links statements of several years: the balance sheet
// profit must match the P&L result, and prior-year columns must match the
// previous year's documents.
package crosscheck

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/validation"
)

// Row codes linking the two statements within one year.
const (
	BalanceSheetProfitCode  = "99" // A.V. Výsledek hospodaření běžného účetního období
	ProfitAndLossResultCode = "53" // ** Výsledek hospodaření po zdanění
)

// Kind names a class of inter-statement check.
type Kind string

const (
	KindWithinYear   Kind = "within_year"
	KindYearOverYear Kind = "year_over_year"
)

// Entry is one extracted document together with its validation report.
type Entry struct {
	Document model.Document
	Report   *validation.DocumentReport
}

// Issue is one inter-statement mismatch above tolerance.
type Issue struct {
	Kind       Kind                `json:"kind"`
	Year       int                 `json:"year"`
	Type       model.StatementType `json:"statement_type"`
	Code       string              `json:"code"`
	Left       decimal.Decimal     `json:"left"`
	Right      decimal.Decimal     `json:"right"`
	Difference decimal.Decimal     `json:"difference"`
	Message    string              `json:"message"`
}

// Labels resolves row labels for messages. *rules.Set implements it.
type Labels interface {
	Schema(typ model.StatementType) (*schema.Schema, bool)
}

// Checker runs inter-statement checks.
type Checker struct {
	labels Labels
}

// NewChecker returns a checker that names rows using labels.
func NewChecker(labels Labels) *Checker {
	return &Checker{labels: labels}
}

// Check picks the best document per statement type and year, then compares
// the within-year link and every year-over-year column pair. Pairs with an
// absent side are skipped. Issues are ordered by check, then year, then row.
func (c *Checker) Check(entries []Entry, tolerance int64) ([]Issue, error) {
	if tolerance < 0 {
		return nil, &validation.InvalidArgumentError{
			Argument: "tolerance",
			Reason:   fmt.Sprintf("must be non-negative, got %d", tolerance),
		}
	}
	tol := decimal.NewFromInt(tolerance)
	bs := BestPerYear(entries, model.BalanceSheet)
	pl := BestPerYear(entries, model.ProfitAndLoss)

	var issues []Issue
	for _, year := range years(bs) {
		p, ok := pl[year]
		if !ok {
			continue
		}
		left := bs[year].Document.Value(BalanceSheetProfitCode, model.ColumnNetto)
		right := p.Document.Value(ProfitAndLossResultCode, model.ColumnCurrent)
		if !left.Valid || !right.Valid {
			continue
		}
		diff := left.Decimal.Sub(right.Decimal).Abs()
		if diff.LessThanOrEqual(tol) {
			continue
		}
		issues = append(issues, Issue{
			Kind:       KindWithinYear,
			Year:       year,
			Type:       model.BalanceSheet,
			Code:       BalanceSheetProfitCode,
			Left:       left.Decimal,
			Right:      right.Decimal,
			Difference: diff,
			Message: fmt.Sprintf("Rok %d: Rozvaha ř. %s (%s) %s ≠ Výsledovka ř. %s (%s) %s. Rozdíl %s > tolerance %d.",
				year,
				BalanceSheetProfitCode, c.label(model.BalanceSheet, BalanceSheetProfitCode), left.Decimal,
				ProfitAndLossResultCode, c.label(model.ProfitAndLoss, ProfitAndLossResultCode), right.Decimal,
				diff, tolerance),
		})
	}

	issues = append(issues, c.yearOverYear(bs, model.ColumnNettoMinule, model.ColumnNetto, tol, tolerance)...)
	issues = append(issues, c.yearOverYear(pl, model.ColumnPrevious, model.ColumnCurrent, tol, tolerance)...)
	return issues, nil
}

func (c *Checker) yearOverYear(byYear map[int]Entry, prevCol, currCol model.Column, tol decimal.Decimal, tolerance int64) []Issue {
	var issues []Issue
	for _, year := range years(byYear) {
		prior, ok := byYear[year-1]
		if !ok {
			continue
		}
		doc := byYear[year].Document
		for _, code := range doc.Codes() {
			left := doc.Value(code, prevCol)
			right := prior.Document.Value(code, currCol)
			if !left.Valid || !right.Valid {
				continue
			}
			diff := left.Decimal.Sub(right.Decimal).Abs()
			if diff.LessThanOrEqual(tol) {
				continue
			}
			issues = append(issues, Issue{
				Kind:       KindYearOverYear,
				Year:       year,
				Type:       doc.Type,
				Code:       code,
				Left:       left.Decimal,
				Right:      right.Decimal,
				Difference: diff,
				Message: fmt.Sprintf("%s, ř. %s (%s): rok %d (sl. minulé) %s ≠ rok %d (sl. běžné) %s. Rozdíl %s > tolerance %d.",
					shortName(doc.Type), code, c.label(doc.Type, code), year, left.Decimal, year-1, right.Decimal, diff, tolerance),
			})
		}
	}
	return issues
}

// BestPerYear keeps one document per year of typ: a valid report beats an
// invalid one, then fewer failed rules win, then the earlier entry.
// Documents without a year are ignored.
func BestPerYear(entries []Entry, typ model.StatementType) map[int]Entry {
	best := make(map[int]Entry)
	for _, e := range entries {
		if e.Document.Type != typ || e.Document.Year == 0 {
			continue
		}
		prev, ok := best[e.Document.Year]
		if !ok || better(e, prev) {
			best[e.Document.Year] = e
		}
	}
	return best
}

func better(a, b Entry) bool {
	aOK, aFailed := score(a)
	bOK, bFailed := score(b)
	if aOK != bOK {
		return aOK
	}
	return aFailed < bFailed
}

func score(e Entry) (valid bool, failed int) {
	if e.Report == nil {
		return false, 0
	}
	_, failed, _ = e.Report.Counts()
	return e.Report.IsValid, failed
}

func years(byYear map[int]Entry) []int {
	out := make([]int, 0, len(byYear))
	for y := range byYear {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}

func (c *Checker) label(typ model.StatementType, code string) string {
	if c.labels != nil {
		if sc, ok := c.labels.Schema(typ); ok {
			return sc.Label(code)
		}
	}
	return "ř. " + code
}

func shortName(typ model.StatementType) string {
	if typ == model.ProfitAndLoss {
		return "Výsledovka"
	}
	return "Rozvaha"
}
