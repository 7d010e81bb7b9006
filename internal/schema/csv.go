package schema

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Header is the CSV header of a schema file.
const Header = "code,mark,label,parent"

const (
	numFields = 4
	colCode   = 0
	colMark   = 1
	colLabel  = 2
	colParent = 3
)

// ReadRows reads a schema CSV. Row order is significant: it is the order of
// roots and of each parent's children.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading schema CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var rows []Row
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// WriteRows writes a schema CSV including the header.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalRow converts a Row to a CSV record.
func MarshalRow(row Row) []string {
	rec := make([]string, numFields)
	rec[colCode] = row.Code
	rec[colMark] = row.Mark
	rec[colLabel] = row.Label
	rec[colParent] = row.Parent
	return rec
}

// UnmarshalRow converts a CSV record to a Row.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	code := strings.TrimSpace(record[colCode])
	if code == "" {
		return Row{}, fmt.Errorf("empty code")
	}
	return Row{
		Code:   code,
		Mark:   strings.TrimSpace(record[colMark]),
		Label:  strings.TrimSpace(record[colLabel]),
		Parent: strings.TrimSpace(record[colParent]),
	}, nil
}
