package ir

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"

	"fortio.org/safecast"

	"bitfact/internal/types"
	"bitfact/internal/value"
)

// ErrMalformed reports a function whose node graph violates its invariants.
var ErrMalformed = errors.New("malformed function")

// Digest is a content hash of a function.
type Digest [sha256.Size]byte

// Function is an ordered list of nodes; every operand precedes its users.
type Function struct {
	Name   string
	Return *Node

	pkg    *Package
	nodes  []*Node
	params []*Node
	byName map[string]*Node
}

func (f *Function) Package() *Package      { return f.pkg }
func (f *Function) Types() *types.Interner { return f.pkg.Types }

// Nodes returns the nodes in definition order.
func (f *Function) Nodes() []*Node { return f.nodes }

// Params returns the parameter nodes in order.
func (f *Function) Params() []*Node { return f.params }

// Node looks a node up by name.
func (f *Function) Node(name string) (*Node, error) {
	n, ok := f.byName[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("function %s: node %q: %w", f.Name, name, ErrNotFound)
	}
	return n, nil
}

// SetReturn marks n as the function result.
func (f *Function) SetReturn(n *Node) {
	f.owned(n)
	f.Return = n
}

// Type returns the function type built from params and return value.
func (f *Function) Type() types.TypeID {
	params := make([]types.TypeID, len(f.params))
	for i, p := range f.params {
		params[i] = p.Type
	}
	result := f.Types().Tuple(nil)
	if f.Return != nil {
		result = f.Return.Type
	}
	return f.Types().Fn(params, result)
}

// Verify checks that every operand is defined earlier in this function.
func (f *Function) Verify() error {
	seen := make(map[*Node]struct{}, len(f.nodes))
	for _, n := range f.nodes {
		if n.fn != f {
			return fmt.Errorf("%w: %s: node %s belongs to another function", ErrMalformed, f.Name, n.Name)
		}
		for _, o := range n.Operands {
			if _, ok := seen[o]; !ok {
				return fmt.Errorf("%w: %s: operand %s of %s is not defined before use", ErrMalformed, f.Name, o.Name, n.Name)
			}
		}
		seen[n] = struct{}{}
	}
	if f.Return != nil {
		if _, ok := seen[f.Return]; !ok {
			return fmt.Errorf("%w: %s: return value %s is not a node of the function", ErrMalformed, f.Name, f.Return.Name)
		}
	}
	return nil
}

// String prints the function, one node per line.
func (f *Function) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s {\n", f.Name)
	for _, n := range f.nodes {
		sb.WriteString("  ")
		if n == f.Return {
			sb.WriteString("ret ")
		}
		sb.WriteString(n.String())
		sb.WriteByte('\n')
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Hash digests the printed form of the function.
func (f *Function) Hash() Digest {
	return sha256.Sum256([]byte(f.String()))
}

// Node constructors ----------------------------------------------------------
//
// Constructors panic on ill-typed operands: building a bad graph is a bug in
// the caller, not an input error.

// Param adds a parameter of the given type.
func (f *Function) Param(name string, typ types.TypeID) *Node {
	if !f.Types().IsOwned(typ) {
		panic(fmt.Errorf("ir: param %s: type %d is not owned by package %s", name, typ, f.pkg.Name))
	}
	n := f.add(&Node{Name: name, Op: OpParam, Type: typ})
	f.params = append(f.params, n)
	return n
}

// Literal adds a constant.
func (f *Function) Literal(name string, v value.Value) *Node {
	return f.add(&Node{Name: name, Op: OpLiteral, Type: f.Types().TypeForValue(v), Literal: v})
}

// Not adds a bitwise inversion.
func (f *Function) Not(name string, x *Node) *Node {
	f.bitsOperand(x)
	return f.add(&Node{Name: name, Op: OpNot, Type: x.Type, Operands: []*Node{x}})
}

func (f *Function) And(name string, xs ...*Node) *Node { return f.nary(name, OpAnd, xs) }
func (f *Function) Or(name string, xs ...*Node) *Node  { return f.nary(name, OpOr, xs) }
func (f *Function) Xor(name string, xs ...*Node) *Node { return f.nary(name, OpXor, xs) }

// Add adds modular addition of two same-width operands.
func (f *Function) Add(name string, a, b *Node) *Node { return f.nary(name, OpAdd, []*Node{a, b}) }

func (f *Function) nary(name string, op Op, xs []*Node) *Node {
	if len(xs) == 0 {
		panic(fmt.Errorf("ir: %s needs at least one operand", op))
	}
	for _, x := range xs {
		f.bitsOperand(x)
		if x.Type != xs[0].Type {
			panic(fmt.Errorf("ir: %s operands %s and %s differ in type", op, xs[0].Name, x.Name))
		}
	}
	return f.add(&Node{Name: name, Op: op, Type: xs[0].Type, Operands: append([]*Node(nil), xs...)})
}

// Concat joins bit vectors; xs[0] supplies the most significant bits.
func (f *Function) Concat(name string, xs ...*Node) *Node {
	width := 0
	for _, x := range xs {
		f.bitsOperand(x)
		width += x.BitCount()
	}
	return f.add(&Node{Name: name, Op: OpConcat, Type: f.Types().Bits(width), Operands: append([]*Node(nil), xs...)})
}

// BitSlice extracts width bits of x starting at bit start.
func (f *Function) BitSlice(name string, x *Node, start, width int) *Node {
	f.bitsOperand(x)
	if start < 0 || width < 0 || start+width > x.BitCount() {
		panic(fmt.Errorf("ir: bit_slice [%d, %d) out of range for %s", start, start+width, x.Name))
	}
	return f.add(&Node{Name: name, Op: OpBitSlice, Type: f.Types().Bits(width), Operands: []*Node{x}, Start: start, Width: width})
}

// ZeroExt widens x to width bits.
func (f *Function) ZeroExt(name string, x *Node, width int) *Node {
	f.bitsOperand(x)
	if width < x.BitCount() {
		panic(fmt.Errorf("ir: zero_ext of %s to narrower width %d", x.Name, width))
	}
	return f.add(&Node{Name: name, Op: OpZeroExt, Type: f.Types().Bits(width), Operands: []*Node{x}, Width: width})
}

func (f *Function) Eq(name string, a, b *Node) *Node { return f.compare(name, OpEq, a, b) }
func (f *Function) Ne(name string, a, b *Node) *Node { return f.compare(name, OpNe, a, b) }

func (f *Function) compare(name string, op Op, a, b *Node) *Node {
	f.owned(a)
	f.owned(b)
	if a.Type != b.Type {
		panic(fmt.Errorf("ir: %s operands %s and %s differ in type", op, a.Name, b.Name))
	}
	return f.add(&Node{Name: name, Op: op, Type: f.Types().Bits(1), Operands: []*Node{a, b}})
}

// Select picks cases[selector], or def when the selector is out of range. def
// may be nil only when cases cover every selector value.
func (f *Function) Select(name string, selector *Node, cases []*Node, def *Node) *Node {
	f.bitsOperand(selector)
	if len(cases) == 0 && def == nil {
		panic(fmt.Errorf("ir: select %s has no cases", name))
	}
	typ := types.NoTypeID
	ops := []*Node{selector}
	for _, c := range append(append([]*Node(nil), cases...), def) {
		if c == nil {
			continue
		}
		f.owned(c)
		if typ != types.NoTypeID && c.Type != typ {
			panic(fmt.Errorf("ir: select %s cases differ in type", name))
		}
		typ = c.Type
	}
	ops = append(ops, cases...)
	w := selector.BitCount()
	if def == nil && (w >= 63 || len(cases) < 1<<w) {
		panic(fmt.Errorf("ir: select %s needs a default: %d cases for a %d-bit selector", name, len(cases), w))
	}
	if def != nil {
		ops = append(ops, def)
	}
	return f.add(&Node{Name: name, Op: OpSelect, Type: typ, Operands: ops, HasDefault: def != nil})
}

// Tuple builds a tuple of xs.
func (f *Function) Tuple(name string, xs ...*Node) *Node {
	elems := make([]types.TypeID, len(xs))
	for i, x := range xs {
		f.owned(x)
		elems[i] = x.Type
	}
	return f.add(&Node{Name: name, Op: OpTuple, Type: f.Types().Tuple(elems), Operands: append([]*Node(nil), xs...)})
}

// TupleIndex extracts element index of tuple t.
func (f *Function) TupleIndex(name string, t *Node, index int) *Node {
	f.owned(t)
	info, ok := f.Types().TupleInfo(t.Type)
	if !ok || index < 0 || index >= len(info.Elems) {
		panic(fmt.Errorf("ir: tuple_index %d invalid for %s", index, t.Name))
	}
	return f.add(&Node{Name: name, Op: OpTupleIndex, Type: info.Elems[index], Operands: []*Node{t}, Index: index})
}

// Array builds an array of same-typed xs.
func (f *Function) Array(name string, xs ...*Node) *Node {
	if len(xs) == 0 {
		panic(fmt.Errorf("ir: array %s needs at least one element", name))
	}
	for _, x := range xs {
		f.owned(x)
		if x.Type != xs[0].Type {
			panic(fmt.Errorf("ir: array %s elements differ in type", name))
		}
	}
	typ := f.Types().Array(len(xs), xs[0].Type)
	return f.add(&Node{Name: name, Op: OpArray, Type: typ, Operands: append([]*Node(nil), xs...)})
}

// ArrayIndex reads arr[index]; an out-of-range index reads the last element.
func (f *Function) ArrayIndex(name string, arr, index *Node) *Node {
	f.owned(arr)
	f.bitsOperand(index)
	elem, size, ok := f.Types().ArrayInfo(arr.Type)
	if !ok || size == 0 {
		panic(fmt.Errorf("ir: array_index of non-array or empty %s", arr.Name))
	}
	return f.add(&Node{Name: name, Op: OpArrayIndex, Type: elem, Operands: []*Node{arr, index}})
}

// AfterAll joins tokens.
func (f *Function) AfterAll(name string, tokens ...*Node) *Node {
	for _, t := range tokens {
		f.owned(t)
		if !f.Types().IsToken(t.Type) {
			panic(fmt.Errorf("ir: after_all operand %s is not a token", t.Name))
		}
	}
	return f.add(&Node{Name: name, Op: OpAfterAll, Type: f.Types().Token(), Operands: append([]*Node(nil), tokens...)})
}

func (f *Function) add(n *Node) *Node {
	id, err := safecast.Conv[uint32](len(f.nodes))
	if err != nil {
		panic(fmt.Errorf("ir: node id overflow: %w", err))
	}
	for _, o := range n.Operands {
		f.owned(o)
	}
	n.ID = NodeID(id)
	n.fn = f
	if n.Name == "" {
		n.Name = fmt.Sprintf("%s.%d", n.Op, n.ID)
	}
	n.Name = normalizeName(n.Name)
	if _, dup := f.byName[n.Name]; dup {
		panic(fmt.Errorf("ir: %s: node %q: %w", f.Name, n.Name, ErrDuplicate))
	}
	f.byName[n.Name] = n
	f.nodes = append(f.nodes, n)
	return n
}

func (f *Function) owned(n *Node) {
	if n == nil || n.fn != f {
		panic(fmt.Errorf("ir: operand is not a node of function %s", f.Name))
	}
}

func (f *Function) bitsOperand(n *Node) {
	f.owned(n)
	if !n.IsBits() {
		panic(fmt.Errorf("ir: %s is not bits-typed", n.Name))
	}
}
