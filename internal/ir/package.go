// Package ir is the container the query engine works over: a Package owns a
// type interner and a set of functions, and each Function owns its nodes.
//
// Construction is single-writer. Once built, a package may be read from any
// number of goroutines.
package ir

import (
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"

	"bitfact/internal/types"
)

var (
	// ErrNotFound reports a lookup of a function or node name that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate reports a second definition of the same name.
	ErrDuplicate = errors.New("duplicate name")
)

// Package owns types and functions.
type Package struct {
	Name  string
	Types *types.Interner

	funcs  []*Function
	byName map[string]*Function
}

// NewPackage returns an empty package with a fresh interner.
func NewPackage(name string) *Package {
	return &Package{
		Name:   normalizeName(name),
		Types:  types.NewInterner(),
		byName: make(map[string]*Function),
	}
}

// AddFunction creates an empty function.
func (p *Package) AddFunction(name string) (*Function, error) {
	name = normalizeName(name)
	if _, ok := p.byName[name]; ok {
		return nil, fmt.Errorf("function %q: %w", name, ErrDuplicate)
	}
	f := &Function{
		Name:   name,
		pkg:    p,
		byName: make(map[string]*Node),
	}
	p.funcs = append(p.funcs, f)
	p.byName[name] = f
	return f, nil
}

// Function looks a function up by name.
func (p *Package) Function(name string) (*Function, error) {
	f, ok := p.byName[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("package %s: function %q: %w", p.Name, name, ErrNotFound)
	}
	return f, nil
}

// Functions returns functions in creation order.
func (p *Package) Functions() []*Function {
	return p.funcs
}

// normalizeName maps names to NFC; every insert and lookup goes through it.
func normalizeName(s string) string {
	return norm.NFC.String(s)
}
