package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/valuagent/valuagent/internal/model"
)

// FileName is the default configuration file name.
const FileName = "valuagent.yaml"

// Environment variables that override the file.
const (
	EnvTolerance  = "VALUAGENT_TOLERANCE"
	EnvAddr       = "VALUAGENT_ADDR"
	EnvCatalogDir = "VALUAGENT_CATALOG_DIR"
	EnvHistoryDir = "VALUAGENT_HISTORY_DIR"
)

// Config represents the top-level valuagent.yaml configuration.
type Config struct {
	Validation ValidationConfig `yaml:"validation"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Server     ServerConfig     `yaml:"server"`
	History    HistoryConfig    `yaml:"history"`
	Git        GitConfig        `yaml:"git"`
}

// ValidationConfig controls the engine.
type ValidationConfig struct {
	Tolerance int64    `yaml:"tolerance"`
	Columns   []string `yaml:"columns,omitempty"` // empty = every rule column
}

// CatalogConfig locates the schema and formula files. An empty Dir uses
// the built-in Czech layouts.
type CatalogConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// HistoryConfig controls the run history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// GitConfig sets the author of catalog commits.
type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a valuagent.yaml file from disk. Keys missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Validation: ValidationConfig{
			Tolerance: 1,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		History: HistoryConfig{
			Dir: "logs",
		},
		Git: GitConfig{
			AuthorName:  "Valuagent",
			AuthorEmail: "valuagent@localhost",
		},
	}
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Validation.Tolerance < 0 {
		return fmt.Errorf("validation.tolerance must be non-negative, got %d", c.Validation.Tolerance)
	}
	for _, col := range c.Validation.Columns {
		known := false
		for _, typ := range model.StatementTypes {
			if typ.HasColumn(model.Column(col)) {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("validation.columns: unknown column %q", col)
		}
	}
	return nil
}

// ApplyEnv overrides settings from environment variables read through
// lookup, usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvTolerance); ok && v != "" {
		tol, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTolerance, err)
		}
		c.Validation.Tolerance = tol
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvCatalogDir); ok && v != "" {
		c.Catalog.Dir = v
	}
	if v, ok := lookup(EnvHistoryDir); ok && v != "" {
		c.History.Dir = v
	}
	return c.Validate()
}

// RuleColumns returns the configured column subset.
func (c *Config) RuleColumns() []model.Column {
	out := make([]model.Column, len(c.Validation.Columns))
	for i, col := range c.Validation.Columns {
		out[i] = model.Column(col)
	}
	return out
}
