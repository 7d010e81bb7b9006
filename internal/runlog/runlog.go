// Package runlog keeps an append-only CSV history of validation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/validation"
)

// Entry is one row in the run history.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Type      model.StatementType
	Year      int
	Tolerance int64
	Valid     bool
	Passed    int
	Failed    int
	Skipped   int
	Source    string
}

// Header is the CSV header for runs.csv.
const Header = "timestamp,run_id,statement_type,year,tolerance,valid,passed,failed,skipped,source"

// FileName is the history file inside the history directory.
const FileName = "runs.csv"

const (
	numFields    = 10
	colTimestamp = 0
	colRunID     = 1
	colType      = 2
	colYear      = 3
	colTolerance = 4
	colValid     = 5
	colPassed    = 6
	colFailed    = 7
	colSkipped   = 8
	colSource    = 9
)

// FromReport summarizes a document report as a history entry.
func FromReport(r *validation.DocumentReport, at time.Time) Entry {
	passed, failed, skipped := r.Counts()
	return Entry{
		Timestamp: at.UTC(),
		RunID:     r.RunID,
		Type:      r.Type,
		Year:      r.Year,
		Tolerance: r.Tolerance,
		Valid:     r.IsValid,
		Passed:    passed,
		Failed:    failed,
		Skipped:   skipped,
		Source:    r.Source,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colType] = string(e.Type)
	row[colYear] = strconv.Itoa(e.Year)
	row[colTolerance] = strconv.FormatInt(e.Tolerance, 10)
	row[colValid] = strconv.FormatBool(e.Valid)
	row[colPassed] = strconv.Itoa(e.Passed)
	row[colFailed] = strconv.Itoa(e.Failed)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colSource] = e.Source
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	typ, err := model.ParseStatementType(record[colType])
	if err != nil {
		return Entry{}, err
	}
	valid, err := strconv.ParseBool(record[colValid])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing valid %q: %w", record[colValid], err)
	}
	tol, err := strconv.ParseInt(record[colTolerance], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing tolerance %q: %w", record[colTolerance], err)
	}

	ints := make([]int, 4)
	for i, col := range []int{colYear, colPassed, colFailed, colSkipped} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing column %d %q: %w", col+1, record[col], err)
		}
		ints[i] = n
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Type:      typ,
		Year:      ints[0],
		Tolerance: tol,
		Valid:     valid,
		Passed:    ints[1],
		Failed:    ints[2],
		Skipped:   ints[3],
		Source:    record[colSource],
	}, nil
}

// Append writes entries to <dir>/runs.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/runs.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run history CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Recorder serializes appends from concurrent callers such as HTTP handlers.
type Recorder struct {
	mu  sync.Mutex
	dir string
}

// NewRecorder returns a recorder writing to dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// Record appends one entry.
func (r *Recorder) Record(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Append(r.dir, []Entry{e})
}
