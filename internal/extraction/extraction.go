// Package extraction turns the structured output of the OCR/LLM stage into
// model.Documents.
package extraction

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/valuagent/valuagent/internal/model"
	"github.com/valuagent/valuagent/internal/schema"
)

// ErrMalformed is returned when a payload cannot be decoded even after repair.
var ErrMalformed = errors.New("malformed extraction payload")

// Parser converts one extraction payload into a Document.
type Parser interface {
	Parse(r io.Reader) (model.Document, error)
	Type() model.StatementType
}

// CodeChecker tests whether a row code exists in a statement schema.
type CodeChecker interface {
	Exists(code string) bool
}

// Registry holds one parser per statement type.
type Registry struct {
	parsers map[model.StatementType]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[model.StatementType]Parser)}
}

// Register adds a parser. Panics on a duplicate statement type.
func (r *Registry) Register(p Parser) {
	if _, ok := r.parsers[p.Type()]; ok {
		panic("duplicate parser for statement type: " + string(p.Type()))
	}
	r.parsers[p.Type()] = p
}

// Get returns the parser for typ, or nil.
func (r *Registry) Get(typ model.StatementType) Parser {
	return r.parsers[typ]
}

// Parse decodes a payload of the given type.
func (r *Registry) Parse(typ model.StatementType, rd io.Reader) (model.Document, error) {
	p := r.Get(typ)
	if p == nil {
		return model.Document{}, &model.UnknownStatementTypeError{Value: string(typ)}
	}
	return p.Parse(rd)
}

// SchemaSource supplies the schema of each statement type. *rules.Set
// implements it.
type SchemaSource interface {
	Schema(typ model.StatementType) (*schema.Schema, bool)
}

// NewJSONRegistry registers a JSON parser for every statement type src knows.
func NewJSONRegistry(src SchemaSource) *Registry {
	r := NewRegistry()
	for _, typ := range model.StatementTypes {
		sc, ok := src.Schema(typ)
		if !ok {
			continue
		}
		r.Register(&JSONParser{StatementType: typ, Codes: sc})
	}
	return r
}

// FileInfo describes a payload file found by Scan.
type FileInfo struct {
	Name string
	Path string
	Size int64
	Type model.StatementType // empty when the file name does not tell
}

// Scan returns the .json files in dir, sorted by name. A missing directory
// yields no files.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading extraction dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		typ, _ := TypeFromFileName(e.Name())
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
			Type: typ,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// TypeFromFileName infers the statement type from a name such as
// "rozvaha_2024.json" or "vzz-2023.json".
func TypeFromFileName(name string) (model.StatementType, bool) {
	base := strings.ToLower(filepath.Base(name))
	for _, prefix := range []string{"rozvaha", "balance_sheet", "vzz", "ziskaztrata", "profit_and_loss"} {
		if strings.HasPrefix(base, prefix) {
			typ, err := model.ParseStatementType(prefix)
			if err != nil {
				return "", false
			}
			return typ, true
		}
	}
	return "", false
}
