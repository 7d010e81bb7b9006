package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/validation"
)

const (
	dataSheet   = "Data"
	reportSheet = "Report"
)

// BuildXLSX renders a workbook with the extracted values on "Data", one
// row per schema row, and the text summary line by line on "Report".
func BuildXLSX(doc model.Document, sc *schema.Schema, report *validation.DocumentReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", dataSheet); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(reportSheet); err != nil {
		return nil, fmt.Errorf("creating report sheet: %w", err)
	}

	cols := doc.Type.Columns()
	headers := []any{"Označení"}
	for _, c := range cols {
		headers = append(headers, c.Header())
	}
	if err := f.SetSheetRow(dataSheet, "A1", &headers); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, r := range sc.Rows() {
		_ = f.SetCellValue(dataSheet, cell(1, row), r.Code)
		for i, c := range cols {
			v := doc.Value(r.Code, c)
			if !v.Valid {
				continue
			}
			_ = f.SetCellValue(dataSheet, cell(i+2, row), cellNumber(v.Decimal))
		}
		row++
	}

	for i, line := range strings.Split(strings.TrimRight(Summary(report), "\n"), "\n") {
		_ = f.SetCellValue(reportSheet, cell(1, i+1), line)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(err)
	}
	return name
}

// cellNumber stores whole amounts as integers so the sheet shows no
// spurious decimals.
func cellNumber(d decimal.Decimal) any {
	if d.IsInteger() {
		return d.IntPart()
	}
	return d.InexactFloat64()
}
