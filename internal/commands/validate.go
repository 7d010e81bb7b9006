package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/export"
	"github.com/valuagent/valuagent/internal/extraction"
	"github.com/valuagent/valuagent/internal/id"
	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/runlog"
	"github.com/valuagent/valuagent/internal/validation"
)

type validateOptions struct {
	configPath string
	typ        string
	tolerance  int64
	year       int
	format     string
	out        string
	history    bool
}

func newValidateCommand() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate one extracted statement",
		Long: "Validate one extracted statement against the rule catalog.\n\n" +
			"The statement type comes from --type or the file name prefix (rozvaha*, vzz*).\n" +
			"Exits with status 2 when a rule fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], opts)
		},
	}

	addConfigFlag(cmd, &opts.configPath)
	cmd.Flags().StringVar(&opts.typ, "type", "", "statement type: rozvaha or vzz")
	cmd.Flags().Int64Var(&opts.tolerance, "tolerance", validation.DefaultTolerance, "allowed absolute difference")
	cmd.Flags().IntVar(&opts.year, "year", 0, "fiscal year when the payload has no rok")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: json, text, xlsx or pdf (default text, or from --out)")
	cmd.Flags().StringVar(&opts.out, "out", "", "write the report to this file")
	cmd.Flags().BoolVar(&opts.history, "history", false, "append the run to the history log")

	return cmd
}

func runValidate(cmd *cobra.Command, path string, opts validateOptions) error {
	env, err := loadEnvironment(opts.configPath)
	if err != nil {
		return err
	}
	tolerance, err := env.tolerance(cmd, opts.tolerance)
	if err != nil {
		return err
	}
	typ, err := statementType(opts.typ, path)
	if err != nil {
		return err
	}
	format, err := outputFormat(opts.format, opts.out)
	if err != nil {
		return err
	}

	doc, err := readDocument(env.registry, typ, path)
	if err != nil {
		return err
	}
	if doc.Year == 0 {
		doc.Year = opts.year
	}

	report, err := env.engine.ValidateColumns(doc, tolerance, env.cfg.RuleColumns())
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	report.RunID = id.NewRunID()

	if opts.history || env.cfg.History.Enabled {
		entry := runlog.FromReport(report, time.Now().UTC())
		if err := runlog.Append(env.historyDir(), []runlog.Entry{entry}); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to write run history: %v\n", err)
		}
	}

	sc, _ := env.set.Schema(typ)
	var buf bytes.Buffer
	if err := export.Render(&buf, format, doc, sc, report); err != nil {
		return fmt.Errorf("rendering %s report: %w", format, err)
	}

	out := opts.out
	if out == "" && format.Binary() {
		out = export.FileName(typ, doc.Year, format)
	}
	if out == "" {
		if _, err := cmd.OutOrStdout().Write(buf.Bytes()); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, export.OverallStatus(report.IsValid))
	}

	if !report.IsValid {
		return ErrInvalid
	}
	return nil
}

func statementType(flag, path string) (model.StatementType, error) {
	if flag != "" {
		return model.ParseStatementType(flag)
	}
	typ, ok := extraction.TypeFromFileName(path)
	if !ok {
		return "", fmt.Errorf("cannot infer statement type of %s, use --type", filepath.Base(path))
	}
	return typ, nil
}

// outputFormat picks the --format flag, else the --out extension, else text.
func outputFormat(flag, out string) (export.Format, error) {
	if flag != "" {
		return export.ParseFormat(flag)
	}
	if ext := strings.TrimPrefix(filepath.Ext(out), "."); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.FormatText, nil
}

func readDocument(reg *extraction.Registry, typ model.StatementType, path string) (model.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := reg.Parse(typ, f)
	if err != nil {
		return model.Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Source == "" {
		doc.Source = filepath.Base(path)
	}
	return doc, nil
}
