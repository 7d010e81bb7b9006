package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/crosscheck"
	"github.com/valuagent/valuagent/internal/export"
	"github.com/valuagent/valuagent/internal/extraction"
	"github.com/valuagent/valuagent/internal/id"
	"github.com/valuagent/valuagent/internal/validation"
)

func newCrosscheckCommand() *cobra.Command {
	var configPath string
	var tolerance int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "crosscheck <dir-or-file>...",
		Short: "Check statements against each other across types and years",
		Long: "Validate every extracted statement given (directories are scanned for .json files)\n" +
			"and compare the balance sheet with the profit and loss statement of the same year,\n" +
			"and each statement with the one from the year before.\n\n" +
			"The statement type of each file comes from its name prefix (rozvaha*, vzz*).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(configPath)
			if err != nil {
				return err
			}
			tol, err := env.tolerance(cmd, tolerance)
			if err != nil {
				return err
			}
			return runCrosscheck(cmd, env, args, tol, asJSON)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().Int64Var(&tolerance, "tolerance", validation.DefaultTolerance, "allowed absolute difference")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print issues as JSON")

	return cmd
}

func runCrosscheck(cmd *cobra.Command, env *environment, args []string, tolerance int64, asJSON bool) error {
	out := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	var entries []crosscheck.Entry
	for _, f := range files {
		if f.Type == "" {
			fmt.Fprintf(stderr, "warning: skipping %s: unknown statement type\n", f.Name)
			continue
		}
		doc, err := readDocument(env.registry, f.Type, f.Path)
		if err != nil {
			fmt.Fprintf(stderr, "warning: skipping %s: %v\n", f.Name, err)
			continue
		}
		report, err := env.engine.ValidateColumns(doc, tolerance, env.cfg.RuleColumns())
		if err != nil {
			fmt.Fprintf(stderr, "warning: skipping %s: %v\n", f.Name, err)
			continue
		}
		report.RunID = id.NewRunID()
		entries = append(entries, crosscheck.Entry{Document: doc, Report: report})
		if !asJSON {
			fmt.Fprintf(out, "%s: %s %d %s\n", f.Name, doc.Type.Label(), doc.Year, export.OverallStatus(report.IsValid))
		}
	}

	issues, err := crosscheck.NewChecker(env.set).Check(entries, tolerance)
	if err != nil {
		return err
	}
	if asJSON {
		if issues == nil {
			issues = []crosscheck.Issue{}
		}
		if err := export.WriteJSON(out, issues); err != nil {
			return err
		}
	} else {
		printIssues(out, issues)
	}

	if len(issues) > 0 {
		return ErrInvalid
	}
	return nil
}

func printIssues(w io.Writer, issues []crosscheck.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No inter-statement issues.")
		return
	}
	fmt.Fprintf(w, "\n%d inter-statement issue(s):\n", len(issues))
	for _, is := range issues {
		fmt.Fprintf(w, "  %s\n", is.Message)
	}
}

// collectFiles expands directories into the payload files they hold.
func collectFiles(args []string) ([]extraction.FileInfo, error) {
	var files []extraction.FileInfo
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if info.IsDir() {
			found, err := extraction.Scan(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		typ, _ := extraction.TypeFromFileName(arg)
		files = append(files, extraction.FileInfo{
			Name: filepath.Base(arg),
			Path: arg,
			Size: info.Size(),
			Type: typ,
		})
	}
	return files, nil
}
