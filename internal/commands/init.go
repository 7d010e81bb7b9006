package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/config"
	"github.com/valuagent/valuagent/internal/gitops"
	"github.com/valuagent/valuagent/internal/rules"
)

const catalogDirName = "catalog"

func newInitCommand() *cobra.Command {
	var useGit bool
	var tolerance int64

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a config and an editable copy of the default catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			if tolerance < 0 {
				return fmt.Errorf("--tolerance must be non-negative, got %d", tolerance)
			}

			return runInit(cmd, absDir, tolerance, useGit)
		},
	}

	cmd.Flags().BoolVar(&useGit, "git", false, "version the catalog directory with git")
	cmd.Flags().Int64Var(&tolerance, "tolerance", 1, "default tolerance in reporting units")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, tolerance int64, useGit bool) error {
	catalogDir := filepath.Join(dir, catalogDirName)
	for _, d := range []string{catalogDir, filepath.Join(dir, "logs")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default()
	cfg.Validation.Tolerance = tolerance
	cfg.Catalog.Dir = catalogDirName
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	set, err := rules.DefaultSet()
	if err != nil {
		return fmt.Errorf("loading default catalog: %w", err)
	}
	if err := set.Save(catalogDir); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	if !useGit {
		fmt.Fprintf(out, "Initialized valuagent project at %s\n", dir)
		return nil
	}

	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	version, err := gitops.VersionCatalog(catalogDir, "catalog: default Czech statement rules", author)
	if err != nil {
		return fmt.Errorf("versioning catalog: %w", err)
	}
	fmt.Fprintf(out, "Initialized valuagent project at %s (catalog %s)\n", dir, version)
	return nil
}
