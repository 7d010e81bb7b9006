package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/shopspring/decimal"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/statement"
	"github.com/valuagent/valuagent/internal/validation"
)

// JSONParser reads payloads of the form
//
//	{"rok": 2024, "data": {"1": {"netto": 120, "netto_minule": null}}}
//
// A missing column, null or "" is absent; 0 is zero. Unknown column keys
// are ignored. Row codes not declared by Codes are rejected.
type JSONParser struct {
	StatementType model.StatementType
	Codes         CodeChecker
}

// Type returns the statement type this parser produces.
func (p *JSONParser) Type() model.StatementType { return p.StatementType }

type payload struct {
	Rok  any                       `json:"rok"`
	Data map[string]map[string]any `json:"data"`
}

// Parse reads a payload, stripping a Markdown code fence and falling back to
// Hjson and then json-repair when plain decoding fails.
func (p *JSONParser) Parse(r io.Reader) (model.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Document{}, fmt.Errorf("reading payload: %w", err)
	}
	pl, err := unmarshalPayload(data)
	if err != nil {
		return model.Document{}, err
	}

	year, err := parseYear(pl.Rok)
	if err != nil {
		return model.Document{}, err
	}
	doc := model.Document{Type: p.StatementType, Year: year}

	rawCodes := make([]string, 0, len(pl.Data))
	for rawCode := range pl.Data {
		rawCodes = append(rawCodes, rawCode)
	}
	sort.Strings(rawCodes)

	var unknown []string
	seen := make(map[string]bool, len(rawCodes))
	for _, rawCode := range rawCodes {
		code := strings.TrimSpace(rawCode)
		if seen[code] {
			return model.Document{}, fmt.Errorf("%w: row %s appears more than once", ErrMalformed, code)
		}
		seen[code] = true
		if p.Codes != nil && !p.Codes.Exists(code) {
			unknown = append(unknown, strconv.Quote(code))
			continue
		}
		filled := make(map[model.Column]bool)
		for key, raw := range pl.Data[rawCode] {
			col, ok := p.column(key)
			if !ok {
				continue
			}
			if filled[col] {
				return model.Document{}, fmt.Errorf("%w: row %s column %s given more than once", ErrMalformed, code, col)
			}
			filled[col] = true
			v, err := parseValue(raw)
			if err != nil {
				return model.Document{}, fmt.Errorf("%w: row %s column %s: %v", ErrMalformed, code, col, err)
			}
			doc.Set(code, col, v)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return model.Document{}, &validation.InvalidArgumentError{
			Argument: "document",
			Err:      fmt.Errorf("%w for %s: %s", statement.ErrUnknownCode, p.StatementType, strings.Join(unknown, ", ")),
		}
	}
	return doc, nil
}

var columnAliases = map[string]model.Column{
	"soucasne":       model.ColumnCurrent,
	"běžné":          model.ColumnCurrent,
	"minule":         model.ColumnPrevious,
	"netto_minulé":   model.ColumnNettoMinule,
	"netto_previous": model.ColumnNettoMinule,
}

func (p *JSONParser) column(key string) (model.Column, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if p.StatementType.HasColumn(model.Column(k)) {
		return model.Column(k), true
	}
	if c, ok := columnAliases[k]; ok && p.StatementType.HasColumn(c) {
		return c, true
	}
	return "", false
}

// unmarshalPayload tries strict JSON, then Hjson (trailing commas, comments,
// unquoted keys), then json-repair. A repaired payload is accepted only when
// it carries the same numbers as the input.
func unmarshalPayload(data []byte) (payload, error) {
	raw := stripFences(data)
	if len(raw) == 0 {
		return payload{}, fmt.Errorf("%w: empty", ErrMalformed)
	}
	pl, err := decode(raw)
	if err == nil {
		return pl, nil
	}
	if pl, herr := decodeLenient(raw); herr == nil {
		return pl, nil
	}
	repaired, rerr := jsonrepair.RepairJSON(string(raw))
	if rerr != nil {
		return payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !sameNumbers(string(raw), repaired) {
		return payload{}, fmt.Errorf("%w: %v (repair would change numeric values)", ErrMalformed, err)
	}
	pl, err = decode([]byte(repaired))
	if err != nil {
		return payload{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return pl, nil
}

func decode(data []byte) (payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var pl payload
	if err := dec.Decode(&pl); err != nil {
		return payload{}, err
	}
	if pl.Data == nil {
		return payload{}, fmt.Errorf("missing \"data\" object")
	}
	return pl, nil
}

// decodeLenient reads Hjson, keeping numbers as json.Number.
func decodeLenient(data []byte) (payload, error) {
	opts := hjson.DefaultDecoderOptions()
	opts.UseJSONNumber = true
	opts.DisallowDuplicateKeys = true
	var tree any
	if err := hjson.UnmarshalWithOptions(data, &tree, opts); err != nil {
		return payload{}, err
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return payload{}, fmt.Errorf("payload is not an object")
	}
	rows, ok := root["data"].(map[string]any)
	if !ok {
		return payload{}, fmt.Errorf("missing \"data\" object")
	}
	pl := payload{Rok: root["rok"], Data: make(map[string]map[string]any, len(rows))}
	for code, v := range rows {
		cols, ok := v.(map[string]any)
		if !ok {
			return payload{}, fmt.Errorf("row %s is not an object", code)
		}
		pl.Data[code] = cols
	}
	return pl, nil
}

// sameNumbers reports whether a and b hold numerically equal number
// literals, in the same order, outside string literals.
func sameNumbers(a, b string) bool {
	na, nb := numberLexemes(a), numberLexemes(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] == nb[i] {
			continue
		}
		x, errX := decimal.NewFromString(na[i])
		y, errY := decimal.NewFromString(nb[i])
		if errX != nil || errY != nil || !x.Equal(y) {
			return false
		}
	}
	return true
}

func numberLexemes(s string) []string {
	var out []string
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		start := isDigit(c) || (c == '-' && i+1 < len(s) && isDigit(s[i+1]))
		if !start || (i > 0 && isWordByte(s[i-1])) {
			continue
		}
		j := i + 1
		for j < len(s) && (isDigit(s[j]) || strings.IndexByte(".eE+-", s[j]) >= 0) {
			j++
		}
		out = append(out, s[i:j])
		i = j - 1
	}
	return out
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isWordByte(c byte) bool {
	return isDigit(c) || c == '_' || c == '.' || (c|0x20 >= 'a' && c|0x20 <= 'z')
}

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(data []byte) []byte {
	s := bytes.TrimSpace(data)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	if i := bytes.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = s[3:]
	}
	s = bytes.TrimSpace(s)
	s = bytes.TrimSuffix(s, []byte("```"))
	return bytes.TrimSpace(s)
}

func parseYear(v any) (int, error) {
	switch y := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		n, err := y.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: rok %q is not a year", ErrMalformed, y)
		}
		return int(n), nil
	case string:
		if strings.TrimSpace(y) == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(y))
		if err != nil {
			return 0, fmt.Errorf("%w: rok %q is not a year", ErrMalformed, y)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: rok has type %T", ErrMalformed, v)
}

// parseValue keeps absent distinct from zero. Strings may carry thousands
// separators ("1 234") and a decimal comma.
func parseValue(v any) (decimal.NullDecimal, error) {
	switch x := v.(type) {
	case nil:
		return model.Absent(), nil
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return model.Absent(), fmt.Errorf("invalid number %q", x)
		}
		return model.Amount(d), nil
	case string:
		s := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\u00a0' || r == '\u202f' {
				return -1
			}
			return r
		}, strings.TrimSpace(x))
		if s == "" {
			return model.Absent(), nil
		}
		s = strings.Replace(s, ",", ".", 1)
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.Absent(), fmt.Errorf("invalid number %q", x)
		}
		return model.Amount(d), nil
	}
	return model.Absent(), fmt.Errorf("unsupported value %v of type %T", v, v)
}
