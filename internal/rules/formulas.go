package rules

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/valuagent/valuagent/internal/model"
)

// FormulasFile is the file name of formula definitions inside a catalog directory.
const FormulasFile = "formulas.yaml"

//go:embed data/formulas.yaml
var defaultFormulas []byte

// FormulaDef is the on-disk form of a formula rule.
type FormulaDef struct {
	Name        string `yaml:"name"`
	Target      string `yaml:"target"`
	Expression  string `yaml:"expression"`
	Description string `yaml:"description,omitempty"`
}

// Formulas maps each statement type to its formula definitions, in
// evaluation order.
type Formulas map[model.StatementType][]FormulaDef

// ReadFormulas decodes a formulas.yaml document.
func ReadFormulas(r io.Reader) (Formulas, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading formulas: %w", err)
	}
	var f Formulas
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing formulas: %w", err)
	}
	for typ := range f {
		if _, err := model.ParseStatementType(string(typ)); err != nil {
			return nil, fmt.Errorf("parsing formulas: %w", err)
		}
	}
	return f, nil
}

// WriteFormulas encodes formulas as YAML.
func WriteFormulas(w io.Writer, f Formulas) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("marshaling formulas: %w", err)
	}
	return enc.Close()
}

// LoadFormulas reads a formulas.yaml file from disk.
func LoadFormulas(path string) (Formulas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening formulas: %w", err)
	}
	defer f.Close()
	return ReadFormulas(f)
}

// DefaultFormulas returns the built-in formula definitions.
func DefaultFormulas() (Formulas, error) {
	var f Formulas
	if err := yaml.Unmarshal(defaultFormulas, &f); err != nil {
		return nil, fmt.Errorf("parsing default formulas: %w", err)
	}
	return f, nil
}

// Compile parses the expression of a definition.
func (d FormulaDef) Compile() (Formula, error) {
	if d.Target == "" {
		return Formula{}, fmt.Errorf("formula %q: missing target", d.Name)
	}
	terms, err := ParseExpression(d.Expression)
	if err != nil {
		return Formula{}, fmt.Errorf("formula %q: %w", d.Name, err)
	}
	return Formula{
		Name:        d.Name,
		TargetCode:  d.Target,
		Terms:       terms,
		Description: d.Description,
	}, nil
}
