// Package program loads YAML program descriptions: classes, aliases and
// predicates, the functions to analyse, and soundness checks of guards
// against runtime witnesses.
package program

import (
	"go/token"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.Section("program")

// Program is a single YAML file, loaded
type Program struct {
	Path      string
	Universe  *types.Universe
	Functions []*ast.Function
	Checks    []*Check

	fset   *token.FileSet
	errors *ilerr.Errors
}

// Check asks for Guard to be evaluated on every witness, each a value
// of Type, and for narrowing to agree with the branch the witness takes
type Check struct {
	ast.Range
	Type      ast.Type
	Guard     ast.Expr
	Witnesses []Witness
}

// Witness is the source of a Go expression standing for a runtime value
type Witness struct {
	ast.Range
	Src string
}

// FileSet resolves the positions of the diagnostics of p
func (p *Program) FileSet() *token.FileSet {
	return p.fset
}

// Errors returns the diagnostics found while loading p
func (p *Program) Errors() *ilerr.Errors {
	return p.errors
}

// Load reads the program in the file name of fsys
func Load(fsys fs.FS, name string) (*Program, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read program %s", name)
	}
	return FromBytes(name, data)
}

// LoadDir loads every .yaml and .yml file directly inside dir, in
// lexical order
func LoadDir(fsys fs.FS, dir string) ([]*Program, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not list programs in %s", dir)
	}
	var programs []*Program
	for _, entry := range entries {
		if entry.IsDir() || !IsProgramFile(entry.Name()) {
			continue
		}
		p, err := Load(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		programs = append(programs, p)
	}
	slices.SortFunc(programs, func(a, b *Program) int { return strings.Compare(a.Path, b.Path) })
	return programs, nil
}

// IsProgramFile reports whether name has a YAML extension
func IsProgramFile(name string) bool {
	ext := path.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}

// FromBytes loads a program from its source. Only YAML syntax errors are
// returned as errors: problems in the description itself are diagnostics
// of the returned Program
func FromBytes(name string, data []byte) (*Program, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrapf(err, "could not parse program %s", name)
	}
	fset := token.NewFileSet()
	file := fset.AddFile(name, -1, len(data))
	file.SetLinesForContent(data)

	p := &Program{
		Path:     name,
		Universe: types.NewUniverse(),
		fset:     fset,
	}
	l := &loader{file: file, prog: p}
	l.load(&root)
	p.errors = l.errs
	logger.Debug("loaded program",
		"path", name,
		"functions", len(p.Functions),
		"checks", len(p.Checks),
		"errors", p.errors)
	return p, nil
}
