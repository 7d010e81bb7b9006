package rules

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseExpression parses a linear combination of codes such as
// "1 + 2 + 20 - 3 - 7" or "2*5 - 6". Codes are made of letters, digits,
// dots and underscores.
func ParseExpression(s string) ([]Term, error) {
	var terms []Term
	rest := strings.TrimSpace(s)
	if rest == "" {
		return nil, fmt.Errorf("empty expression")
	}

	sign := int64(1)
	first := true
	for rest != "" {
		switch rest[0] {
		case '+':
			rest = strings.TrimSpace(rest[1:])
		case '-':
			sign = -1
			rest = strings.TrimSpace(rest[1:])
		default:
			if !first {
				return nil, fmt.Errorf("expected + or - before %q in %q", rest, s)
			}
		}

		var operand string
		operand, rest = splitOperand(rest)
		if operand == "" {
			return nil, fmt.Errorf("missing operand in %q", s)
		}
		term, err := parseTerm(operand)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", s, err)
		}
		term.Coefficient *= sign
		terms = append(terms, term)

		sign = 1
		first = false
		rest = strings.TrimSpace(rest)
	}
	return terms, nil
}

func splitOperand(s string) (operand, rest string) {
	i := strings.IndexFunc(s, func(r rune) bool { return r == '+' || r == '-' })
	if i < 0 {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:i]), s[i:]
}

func parseTerm(s string) (Term, error) {
	coef := int64(1)
	code := s
	if c, after, ok := strings.Cut(s, "*"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(c), 10, 64)
		if err != nil {
			return Term{}, fmt.Errorf("invalid coefficient %q: %w", c, err)
		}
		if n == 0 {
			return Term{}, fmt.Errorf("zero coefficient for %q", after)
		}
		coef = n
		code = strings.TrimSpace(after)
	}
	if code == "" {
		return Term{}, fmt.Errorf("missing code")
	}
	for _, r := range code {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' {
			return Term{}, fmt.Errorf("invalid character %q in code %q", r, code)
		}
	}
	return Term{Coefficient: coef, Code: code}, nil
}
