package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valuagent/valuagent/internal/config"
	"github.com/valuagent/valuagent/internal/extraction"
	"github.com/valuagent/valuagent/internal/rules"
	"github.com/valuagent/valuagent/internal/validation"
)

// ErrInvalid is returned when a command ran to completion but the checked
// statements did not validate. main maps it to exit code 2.
var ErrInvalid = errors.New("validation failed")

// environment is the configuration and rule set a command runs with.
type environment struct {
	cfg      *config.Config
	root     string // directory relative paths in cfg resolve against
	set      *rules.Set
	engine   *validation.Engine
	registry *extraction.Registry
}

// loadEnvironment reads the config at path (defaults when it does not
// exist), applies environment overrides and loads the catalog.
func loadEnvironment(path string) (*environment, error) {
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	env := &environment{cfg: cfg, root: filepath.Dir(path)}

	if dir := env.catalogDir(); dir != "" {
		env.set, err = rules.LoadSet(dir)
	} else {
		env.set, err = rules.DefaultSet()
	}
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	env.engine = validation.NewEngine(env.set)
	env.registry = extraction.NewJSONRegistry(env.set)
	return env, nil
}

func (e *environment) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.root, p)
}

func (e *environment) catalogDir() string {
	return e.resolve(e.cfg.Catalog.Dir)
}

func (e *environment) historyDir() string {
	return e.resolve(e.cfg.History.Dir)
}

// tolerance returns the --tolerance flag when set, else the configured one.
func (e *environment) tolerance(cmd *cobra.Command, flag int64) (int64, error) {
	if !cmd.Flags().Changed("tolerance") {
		return e.cfg.Validation.Tolerance, nil
	}
	if flag < 0 {
		return 0, fmt.Errorf("--tolerance must be non-negative, got %d", flag)
	}
	return flag, nil
}

func addConfigFlag(cmd *cobra.Command, path *string) {
	cmd.Flags().StringVar(path, "config", config.FileName, "path to "+config.FileName)
}
