package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
)

func newSchemaCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "schema <type>",
		Short: "Print the row index of a statement type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseStatementType(args[0])
			if err != nil {
				return err
			}
			env, err := loadEnvironment(configPath)
			if err != nil {
				return err
			}
			sc, ok := env.set.Schema(typ)
			if !ok {
				return fmt.Errorf("no schema loaded for %s", typ)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), schema.IndexString(sc))
			return err
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
