package commands

import (
	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "valuagent",
		Short:   "Rule-based validation of Czech financial statements",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newInitCommand(),
		newValidateCommand(),
		newCrosscheckCommand(),
		newSchemaCommand(),
		newServeCommand(),
	)

	return rootCmd
}
