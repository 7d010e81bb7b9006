// Package export renders validation reports for people and downstream tools.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/validation"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatText, FormatXLSX, FormatPDF}

// ParseFormat accepts a format name, case-insensitively. "txt" means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatText, FormatXLSX, FormatPDF:
		return f, nil
	case "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q (use json, text, xlsx or pdf)", s)
}

// ContentType returns the MIME type of a format.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "text/plain; charset=utf-8"
}

// Binary reports whether the format should not be printed to a terminal.
func (f Format) Binary() bool {
	return f == FormatXLSX || f == FormatPDF
}

// FileName returns the download name of an export, e.g.
// "valuagent_rozvaha_2024.xlsx".
func FileName(typ model.StatementType, year int, f Format) string {
	ext := string(f)
	if f == FormatText {
		ext = "txt"
	}
	if year == 0 {
		return fmt.Sprintf("valuagent_%s.%s", typ, ext)
	}
	return fmt.Sprintf("valuagent_%s_%d.%s", typ, year, ext)
}

// Render writes report in format f. The spreadsheet needs the document
// values and the schema for its Data sheet; the other formats ignore them.
func Render(w io.Writer, f Format, doc model.Document, sc *schema.Schema, report *validation.DocumentReport) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatText:
		_, err := io.WriteString(w, Summary(report))
		return err
	case FormatXLSX:
		data, err := BuildXLSX(doc, sc, report)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatPDF:
		data, err := BuildPDF(report)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteJSON writes report as indented JSON. Decimals are strings.
func WriteJSON(w io.Writer, report any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
