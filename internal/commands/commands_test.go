package commands_test

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valuagent/valuagent/internal/config"
	"github.com/valuagent/valuagent/internal/runlog"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "valuagent-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "valuagent")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/valuagent")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runValuagent(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = t.TempDir()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	skippedOnly = `{"rok": 2024, "data": {"1": {"současné": 100}}}`
	unbalanced  = `{"rok": 2024, "data": {"1": {"netto": 100}, "78": {"netto": 90}}}`
)

func TestVersion(t *testing.T) {
	out, err := runValuagent(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "valuagent version dev")
}

func TestInit_CreatesProject(t *testing.T) {
	dir := t.TempDir()
	out, err := runValuagent(t, "init", dir, "--tolerance", "2")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Initialized valuagent project")

	for _, name := range []string{"rozvaha.csv", "vzz.csv", "formulas.yaml"} {
		_, err := os.Stat(filepath.Join(dir, "catalog", name))
		require.NoError(t, err, "catalog/%s should exist", name)
	}
	info, err := os.Stat(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, int64(2), cfg.Validation.Tolerance)
	assert.Equal(t, "catalog", cfg.Catalog.Dir)
}

func TestInit_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	out, err := runValuagent(t, "init", dir, "--git")
	require.NoError(t, err, out)

	_, err = os.Stat(filepath.Join(dir, "catalog", ".git"))
	require.NoError(t, err)
	assert.Contains(t, out, "(catalog ")
}

func TestInit_NegativeTolerance(t *testing.T) {
	_, err := runValuagent(t, "init", t.TempDir(), "--tolerance", "-1")
	assert.Equal(t, 1, exitCode(err))
}

func TestValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "vzz_2024.json", skippedOnly)

	out, err := runValuagent(t, "validate", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Výkaz zisku a ztráty Validation Report - Year 2024")
	assert.Contains(t, out, "Overall Status: ✓ VALID")
}

func TestValidate_InvalidExitsTwo(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "statement.json", unbalanced)

	out, err := runValuagent(t, "validate", path, "--type", "rozvaha")
	assert.Equal(t, 2, exitCode(err), out)
	assert.Contains(t, out, "Overall Status: ✗ VALIDATION ERRORS")
}

func TestValidate_ToleranceFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rozvaha_2024.json", unbalanced)

	out, err := runValuagent(t, "validate", path, "--tolerance", "10")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Tolerance: 10")
}

func TestValidate_JSONOut(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rozvaha_2024.json", unbalanced)
	outPath := filepath.Join(dir, "report.json")

	out, err := runValuagent(t, "validate", path, "--out", outPath)
	assert.Equal(t, 2, exitCode(err), out)
	assert.Contains(t, out, "Wrote "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"statement_type": "rozvaha"`)
	assert.Contains(t, string(data), `"is_valid": false`)
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	untyped := writeFile(t, dir, "statement.json", unbalanced)
	unknownCode := writeFile(t, dir, "rozvaha_bad.json", `{"data": {"999": {"netto": 1}}}`)

	tests := []struct {
		name string
		args []string
	}{
		{"type not inferable", []string{"validate", untyped}},
		{"unknown type", []string{"validate", untyped, "--type", "cashflow"}},
		{"unknown code", []string{"validate", unknownCode}},
		{"missing file", []string{"validate", filepath.Join(dir, "rozvaha_none.json")}},
		{"negative tolerance", []string{"validate", untyped, "--type", "rozvaha", "--tolerance", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runValuagent(t, tt.args...)
			assert.Equal(t, 1, exitCode(err), out)
		})
	}
}

func TestValidate_History(t *testing.T) {
	dir := t.TempDir()
	_, err := runValuagent(t, "init", dir)
	require.NoError(t, err)
	path := writeFile(t, dir, "vzz_2024.json", skippedOnly)

	out, err := runValuagent(t, "validate", path, "--config", filepath.Join(dir, config.FileName), "--history")
	require.NoError(t, err, out)

	entries, err := runlog.Read(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Valid)
	assert.Equal(t, 2024, entries[0].Year)
	assert.Equal(t, "vzz_2024.json", entries[0].Source)
}

func TestSchema(t *testing.T) {
	out, err := runValuagent(t, "schema", "rozvaha")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 AKTIVA CELKEM\n")
	assert.Contains(t, out, "78 PASIVA CELKEM\n")
	assert.Contains(t, out, "99 A.V. Výsledek hospodaření běžného účetního období (+/-)\n")
}

func TestCrosscheck_ProfitMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "rozvaha_2024.json", `{"rok": 2024, "data": {"99": {"netto": 50}}}`)
	writeFile(t, dir, "vzz_2024.json", `{"rok": 2024, "data": {"53": {"současné": 40}}}`)
	writeFile(t, dir, "notes.json", `{"data": {}}`)

	out, err := runValuagent(t, "crosscheck", dir)
	assert.Equal(t, 2, exitCode(err), out)
	assert.Contains(t, out, "warning: skipping notes.json")
	assert.Contains(t, out, "rozvaha_2024.json: Rozvaha 2024 ✓ VALID")
	assert.Contains(t, out, "Rok 2024: Rozvaha ř. 99")
	assert.Contains(t, out, "Rozdíl 10 > tolerance 1.")
}

func TestCrosscheck_Clean(t *testing.T) {
	dir := t.TempDir()
	bs := writeFile(t, dir, "rozvaha_2024.json", `{"rok": 2024, "data": {"99": {"netto": 40}}}`)
	pl := writeFile(t, dir, "vzz_2024.json", `{"rok": 2024, "data": {"53": {"současné": 40}}}`)

	out, err := runValuagent(t, "crosscheck", bs, pl)
	require.NoError(t, err, out)
	assert.Contains(t, out, "No inter-statement issues.")
}
