package schema

import (
	"bytes"
	"embed"
	"fmt"

	"github.com/valuagent/valuagent/internal/model"
)

//go:embed data/*.csv
var defaultFiles embed.FS

// DefaultRows returns the statutory Czech layout for a statement type:
// the full balance sheet (rows 1-143) or the profit and loss statement
// classified by nature (rows 1-56).
func DefaultRows(typ model.StatementType) ([]Row, error) {
	data, err := DefaultCSV(typ)
	if err != nil {
		return nil, err
	}
	return ReadRows(bytes.NewReader(data))
}

// DefaultCSV returns the embedded schema file for a statement type.
func DefaultCSV(typ model.StatementType) ([]byte, error) {
	data, err := defaultFiles.ReadFile("data/" + fileName(typ))
	if err != nil {
		return nil, fmt.Errorf("no default schema for %q: %w", typ, err)
	}
	return data, nil
}

// Default builds the default schema for a statement type.
func Default(typ model.StatementType) (*Schema, error) {
	rows, err := DefaultRows(typ)
	if err != nil {
		return nil, err
	}
	return New(typ, rows)
}

func fileName(typ model.StatementType) string {
	return string(typ) + ".csv"
}
