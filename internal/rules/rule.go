// Package rules defines the arithmetic checks run against a statement tree
// and the per-statement catalogs that hold them.
package rules

import (
	"strconv"
	"strings"

	"github.com/valuagent/valuagent/internal/id"
)

// Kind names a rule variant.
type Kind string

const (
	KindHierarchical Kind = "hierarchical"
	KindFormula      Kind = "formula"
)

// Rule is a closed sum type: the only implementations are Hierarchical and
// Formula. Evaluators switch on the concrete type.
type Rule interface {
	ID() string
	Kind() Kind
	// Target is the code whose extracted value is compared against the
	// computed one.
	Target() string
	isRule()
}

// Hierarchical asserts that a parent equals the sum of its declared children.
type Hierarchical struct {
	Parent string
}

func (h Hierarchical) ID() string     { return id.FormatRuleID("sum", h.Parent) }
func (h Hierarchical) Kind() Kind     { return KindHierarchical }
func (h Hierarchical) Target() string { return h.Parent }
func (Hierarchical) isRule()          {}

// Term is one signed addend of a formula.
type Term struct {
	Coefficient int64
	Code        string
}

// Formula asserts value(TargetCode) == sum(Coefficient * value(Code)).
type Formula struct {
	Name        string
	TargetCode  string
	Terms       []Term
	Description string
}

func (f Formula) ID() string {
	key := f.Name
	if key == "" {
		key = f.TargetCode
	}
	return id.FormatRuleID("formula", key)
}

func (f Formula) Kind() Kind     { return KindFormula }
func (f Formula) Target() string { return f.TargetCode }
func (Formula) isRule()          {}

// FormatTerms renders terms the way statements print them: "30+48",
// "1+2-3", "2*5-6". A leading positive term carries no sign.
func FormatTerms(terms []Term) string {
	var b strings.Builder
	for i, t := range terms {
		c := t.Coefficient
		switch {
		case c < 0:
			b.WriteByte('-')
			c = -c
		case i > 0:
			b.WriteByte('+')
		}
		if c != 1 {
			b.WriteString(strconv.FormatInt(c, 10))
			b.WriteByte('*')
		}
		b.WriteString(t.Code)
	}
	return b.String()
}

// SumOf returns unit terms for codes, the right-hand side of a hierarchical rule.
func SumOf(codes []string) []Term {
	terms := make([]Term, len(codes))
	for i, c := range codes {
		terms[i] = Term{Coefficient: 1, Code: c}
	}
	return terms
}
