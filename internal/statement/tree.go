// Package statement holds the line-item tree of one financial statement.
//
// A Tree is immutable once built. The hierarchy is checked in NewTree;
// WithValues reuses that hierarchy, so per-request trees are never
// re-checked for cycles.
package statement

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/model"
)

// Tree is an ordered forest of line items.
type Tree struct {
	typ   model.StatementType
	items map[string]model.LineItem
	order []string
	roots []string
}

// NewTree builds a tree and verifies its hierarchy: codes are unique and
// non-empty, every root and child exists, no item has two parents and the
// hierarchy is acyclic.
func NewTree(typ model.StatementType, items []model.LineItem, roots []string) (*Tree, error) {
	t := &Tree{
		typ:   typ,
		items: make(map[string]model.LineItem, len(items)),
		order: make([]string, 0, len(items)),
		roots: append([]string(nil), roots...),
	}
	for _, it := range items {
		if it.Code == "" {
			return nil, structural("", "line item %q has an empty code", it.Label)
		}
		if _, dup := t.items[it.Code]; dup {
			return nil, structural(it.Code, "duplicate code")
		}
		it.Children = append([]string(nil), it.Children...)
		t.items[it.Code] = it
		t.order = append(t.order, it.Code)
	}

	parentOf := make(map[string]string, len(items))
	for _, code := range t.order {
		for _, child := range t.items[code].Children {
			if _, ok := t.items[child]; !ok {
				return nil, structural(code, "declared child %q does not exist", child)
			}
			if prev, ok := parentOf[child]; ok {
				return nil, structural(child, "declared as child of both %q and %q", prev, code)
			}
			parentOf[child] = code
		}
	}

	seenRoot := make(map[string]bool, len(roots))
	for _, r := range t.roots {
		if _, ok := t.items[r]; !ok {
			return nil, structural(r, "root does not exist")
		}
		if p, ok := parentOf[r]; ok {
			return nil, structural(r, "root is declared as child of %q", p)
		}
		if seenRoot[r] {
			return nil, structural(r, "duplicate root")
		}
		seenRoot[r] = true
	}

	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) checkAcyclic() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(t.items))

	var visit func(code string) error
	visit = func(code string) error {
		switch state[code] {
		case visiting:
			return structural(code, "cycle in declared hierarchy")
		case done:
			return nil
		}
		state[code] = visiting
		for _, child := range t.items[code].Children {
			if err := visit(child); err != nil {
				return err
			}
		}
		state[code] = done
		return nil
	}

	for _, code := range t.order {
		if err := visit(code); err != nil {
			return err
		}
	}
	return nil
}

// WithValues returns a copy of t with item values replaced by values.
// Codes missing from values become absent. The hierarchy is shared.
func (t *Tree) WithValues(values map[string]decimal.NullDecimal) (*Tree, error) {
	for code := range values {
		if _, ok := t.items[code]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCode, code)
		}
	}
	items := make(map[string]model.LineItem, len(t.items))
	for code, it := range t.items {
		it.Value = values[code]
		items[code] = it
	}
	return &Tree{typ: t.typ, items: items, order: t.order, roots: t.roots}, nil
}

// Type returns the statement type.
func (t *Tree) Type() model.StatementType {
	return t.typ
}

// Get returns the value of code. The result is not Valid when the code is
// unknown or its value is absent; use Has to tell the two apart.
func (t *Tree) Get(code string) decimal.NullDecimal {
	return t.items[code].Value
}

// Has reports whether code is declared in the tree.
func (t *Tree) Has(code string) bool {
	_, ok := t.items[code]
	return ok
}

// Item returns the line item for code.
func (t *Tree) Item(code string) (model.LineItem, bool) {
	it, ok := t.items[code]
	if !ok {
		return model.LineItem{}, false
	}
	it.Children = append([]string(nil), it.Children...)
	return it, true
}

// ChildrenOf returns the declared children of code in order.
func (t *Tree) ChildrenOf(code string) []string {
	return append([]string(nil), t.items[code].Children...)
}

// Roots returns the top-level codes in order.
func (t *Tree) Roots() []string {
	return append([]string(nil), t.roots...)
}

// Codes returns every code in declaration order.
func (t *Tree) Codes() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of line items.
func (t *Tree) Len() int {
	return len(t.order)
}

// Walk visits items depth-first from each root, parents before children.
func (t *Tree) Walk(fn func(item model.LineItem, depth int)) {
	var walk func(code string, depth int)
	walk = func(code string, depth int) {
		it := t.items[code]
		fn(it, depth)
		for _, child := range it.Children {
			walk(child, depth+1)
		}
	}
	for _, r := range t.roots {
		walk(r, 0)
	}
}
