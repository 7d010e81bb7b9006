// Package schema describes the static row hierarchy of each statement type.
package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/statement"
)

// Row is one line of a schema file. Parent is empty for top-level rows.
type Row struct {
	Code   string
	Mark   string
	Label  string
	Parent string
}

// Schema is the loaded hierarchy of one statement type. It is immutable and
// safe for concurrent use.
type Schema struct {
	typ    model.StatementType
	rows   []Row
	byCode map[string]Row
	proto  *statement.Tree
}

// New validates rows and builds a Schema. A parent that is not itself a row
// and a cycle in the parent chain are reported as *statement.StructuralError.
func New(typ model.StatementType, rows []Row) (*Schema, error) {
	byCode := make(map[string]Row, len(rows))
	children := make(map[string][]string, len(rows))
	var roots []string
	for _, r := range rows {
		if _, dup := byCode[r.Code]; dup {
			return nil, &statement.StructuralError{Code: r.Code, Reason: "duplicate code in schema"}
		}
		byCode[r.Code] = r
		if r.Parent == "" {
			roots = append(roots, r.Code)
		} else {
			children[r.Parent] = append(children[r.Parent], r.Code)
		}
	}

	for _, r := range rows {
		if r.Parent == "" {
			continue
		}
		if _, ok := byCode[r.Parent]; !ok {
			return nil, &statement.StructuralError{
				Code:   r.Parent,
				Reason: fmt.Sprintf("parent of %q is not declared in the schema", r.Code),
			}
		}
	}

	items := make([]model.LineItem, len(rows))
	for i, r := range rows {
		items[i] = model.LineItem{
			Code:     r.Code,
			Mark:     r.Mark,
			Label:    r.Label,
			Children: children[r.Code],
		}
	}
	proto, err := statement.NewTree(typ, items, roots)
	if err != nil {
		return nil, fmt.Errorf("%s schema: %w", typ, err)
	}

	return &Schema{
		typ:    typ,
		rows:   append([]Row(nil), rows...),
		byCode: byCode,
		proto:  proto,
	}, nil
}

// Load reads <dir>/<type>.csv.
func Load(dir string, typ model.StatementType) (*Schema, error) {
	path := filepath.Join(dir, fileName(typ))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening schema: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return New(typ, rows)
}

// Save writes the schema to <dir>/<type>.csv.
func (s *Schema) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating schema dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, fileName(s.typ)))
	if err != nil {
		return fmt.Errorf("creating schema file: %w", err)
	}
	defer f.Close()

	if err := WriteRows(f, s.rows); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	return nil
}

// Type returns the statement type.
func (s *Schema) Type() model.StatementType {
	return s.typ
}

// Rows returns all rows in file order.
func (s *Schema) Rows() []Row {
	return append([]Row(nil), s.rows...)
}

// Get returns a row by code.
func (s *Schema) Get(code string) (Row, bool) {
	r, ok := s.byCode[code]
	return r, ok
}

// Exists reports whether a code is declared.
func (s *Schema) Exists(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// Label returns the row label, or the code when the row is unknown.
func (s *Schema) Label(code string) string {
	if r, ok := s.byCode[code]; ok && r.Label != "" {
		return r.Label
	}
	return code
}

// ChildrenOf returns the declared children of a code.
func (s *Schema) ChildrenOf(code string) []string {
	return s.proto.ChildrenOf(code)
}

// Roots returns the top-level codes.
func (s *Schema) Roots() []string {
	return s.proto.Roots()
}

// Tree returns the hierarchy with every value absent.
func (s *Schema) Tree() *statement.Tree {
	return s.proto
}

// Build returns a tree over this schema holding values. Codes missing from
// values are absent; codes not in the schema are rejected.
func (s *Schema) Build(values map[string]decimal.NullDecimal) (*statement.Tree, error) {
	return s.proto.WithValues(values)
}
