package rules

import (
	"fmt"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
	"github.com/valuagent/valuagent/internal/statement"
)

// Catalog is the ordered, immutable rule list of one statement type.
type Catalog struct {
	typ   model.StatementType
	rules []Rule
}

// NewCatalog derives one hierarchical rule per schema parent, in
// depth-first schema order, followed by the compiled formulas in
// definition order. A formula referencing a code the schema does not
// declare is a *statement.StructuralError.
func NewCatalog(s *schema.Schema, defs []FormulaDef) (*Catalog, error) {
	c := &Catalog{typ: s.Type()}

	s.Tree().Walk(func(item model.LineItem, _ int) {
		if !item.IsLeaf() {
			c.rules = append(c.rules, Hierarchical{Parent: item.Code})
		}
	})

	for _, d := range defs {
		f, err := d.Compile()
		if err != nil {
			return nil, fmt.Errorf("%s catalog: %w", s.Type(), err)
		}
		if !s.Exists(f.TargetCode) {
			return nil, fmt.Errorf("%s catalog: %w", s.Type(), &statement.StructuralError{
				Code:   f.TargetCode,
				Reason: fmt.Sprintf("formula %s targets an undeclared code", f.ID()),
			})
		}
		for _, t := range f.Terms {
			if !s.Exists(t.Code) {
				return nil, fmt.Errorf("%s catalog: %w", s.Type(), &statement.StructuralError{
					Code:   t.Code,
					Reason: fmt.Sprintf("formula %s references an undeclared code", f.ID()),
				})
			}
		}
		c.rules = append(c.rules, f)
	}

	seen := make(map[string]bool, len(c.rules))
	for _, r := range c.rules {
		if seen[r.ID()] {
			return nil, fmt.Errorf("%s catalog: duplicate rule ID %s", s.Type(), r.ID())
		}
		seen[r.ID()] = true
	}
	return c, nil
}

// Type returns the statement type the catalog applies to.
func (c *Catalog) Type() model.StatementType {
	return c.typ
}

// Rules returns the rules in evaluation order.
func (c *Catalog) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Count returns the number of rules of a kind.
func (c *Catalog) Count(kind Kind) int {
	n := 0
	for _, r := range c.rules {
		if r.Kind() == kind {
			n++
		}
	}
	return n
}
