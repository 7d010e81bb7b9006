package runlog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/validation"
)

var testTime = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func testEntry() Entry {
	return Entry{
		Timestamp: testTime,
		RunID:     "0b5c8f0e-3f4f-4d5e-9a55-1b1f2b7c9d10",
		Type:      model.BalanceSheet,
		Year:      2024,
		Tolerance: 1,
		Valid:     false,
		Passed:    70,
		Failed:    2,
		Skipped:   8,
		Source:    "rozvaha_2024.json",
	}
}

func TestAppend_NewFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEntry(), entries[0])

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), Header+"\n")
}

func TestAppend_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Append(dir, []Entry{testEntry()}))

	e2 := testEntry()
	e2.Type = model.ProfitAndLoss
	e2.Valid = true
	require.NoError(t, Append(dir, []Entry{e2}))

	entries, err := Read(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.BalanceSheet, entries[0].Type)
	assert.Equal(t, model.ProfitAndLoss, entries[1].Type)
	assert.True(t, entries[1].Valid)
}

func TestRead_Missing(t *testing.T) {
	entries, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestUnmarshalEntry_Errors(t *testing.T) {
	good := MarshalEntry(testEntry())

	_, err := UnmarshalEntry(good[:3])
	assert.Error(t, err)

	bad := append([]string(nil), good...)
	bad[colTimestamp] = "yesterday"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), good...)
	bad[colType] = "cashflow"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)

	bad = append([]string(nil), good...)
	bad[colFailed] = "two"
	_, err = UnmarshalEntry(bad)
	assert.Error(t, err)
}

func TestFromReport(t *testing.T) {
	r := &validation.DocumentReport{
		RunID:     "run",
		Type:      model.ProfitAndLoss,
		Year:      2023,
		Tolerance: 1,
		Source:    "vzz.json",
		Columns: []validation.Report{{Results: []validation.RuleResult{
			{Status: validation.StatusPassed},
			{Status: validation.StatusSkipped},
		}}},
		IsValid: true,
	}
	e := FromReport(r, testTime.In(time.FixedZone("CET", 3600)))
	assert.Equal(t, testTime, e.Timestamp)
	assert.Equal(t, 1, e.Passed)
	assert.Equal(t, 1, e.Skipped)
	assert.Equal(t, "vzz.json", e.Source)
	assert.True(t, e.Valid)
}

func TestRecorder_Concurrent(t *testing.T) {
	dir := t.TempDir()
	rec := NewRecorder(dir)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, rec.Record(testEntry()))
		}()
	}
	wg.Wait()

	entries, err := Read(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}
