package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
)

// Set bundles the schema and catalog of every statement type. It is built
// once at startup and shared read-only.
type Set struct {
	schemas  map[model.StatementType]*schema.Schema
	catalogs map[model.StatementType]*Catalog
	formulas Formulas
}

// NewSet builds catalogs for the given schemas. Types without formulas get
// hierarchical rules only.
func NewSet(schemas []*schema.Schema, formulas Formulas) (*Set, error) {
	set := &Set{
		schemas:  make(map[model.StatementType]*schema.Schema, len(schemas)),
		catalogs: make(map[model.StatementType]*Catalog, len(schemas)),
		formulas: formulas,
	}
	for _, s := range schemas {
		c, err := NewCatalog(s, formulas[s.Type()])
		if err != nil {
			return nil, err
		}
		set.schemas[s.Type()] = s
		set.catalogs[s.Type()] = c
	}
	for typ := range formulas {
		if _, ok := set.schemas[typ]; !ok {
			return nil, fmt.Errorf("formulas given for %s without a schema", typ)
		}
	}
	return set, nil
}

// DefaultSet returns the built-in Czech statutory layouts and formulas.
func DefaultSet() (*Set, error) {
	formulas, err := DefaultFormulas()
	if err != nil {
		return nil, err
	}
	var schemas []*schema.Schema
	for _, typ := range model.StatementTypes {
		s, err := schema.Default(typ)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return NewSet(schemas, formulas)
}

// LoadSet reads schemas and formulas from dir. Any file that is missing
// falls back to the built-in default.
func LoadSet(dir string) (*Set, error) {
	formulas, err := LoadFormulas(filepath.Join(dir, FormulasFile))
	if errors.Is(err, fs.ErrNotExist) {
		formulas, err = DefaultFormulas()
	}
	if err != nil {
		return nil, err
	}

	var schemas []*schema.Schema
	for _, typ := range model.StatementTypes {
		s, err := schema.Load(dir, typ)
		if errors.Is(err, fs.ErrNotExist) {
			s, err = schema.Default(typ)
		}
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return NewSet(schemas, formulas)
}

// Save writes every schema and the formulas file to dir.
func (s *Set) Save(dir string) error {
	for _, typ := range s.Types() {
		if err := s.schemas[typ].Save(dir); err != nil {
			return err
		}
	}
	f, err := os.Create(filepath.Join(dir, FormulasFile))
	if err != nil {
		return fmt.Errorf("creating formulas file: %w", err)
	}
	defer f.Close()
	return WriteFormulas(f, s.formulas)
}

// Catalog returns the rule catalog for a statement type.
func (s *Set) Catalog(typ model.StatementType) (*Catalog, bool) {
	c, ok := s.catalogs[typ]
	return c, ok
}

// Schema returns the schema for a statement type.
func (s *Set) Schema(typ model.StatementType) (*schema.Schema, bool) {
	sc, ok := s.schemas[typ]
	return sc, ok
}

// Types returns the loaded statement types in canonical order.
func (s *Set) Types() []model.StatementType {
	var types []model.StatementType
	for _, typ := range model.StatementTypes {
		if _, ok := s.schemas[typ]; ok {
			types = append(types, typ)
		}
	}
	return types
}
