package query

import (
	"bitfact/internal/bits"
	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/ternary"
	"bitfact/internal/types"
)

// tableEngine serves facts set directly by a test. Its relational primitives
// only look at individually known bits.
type tableEngine struct {
	facts       map[*ir.Node]leaftree.Tree[ternary.Vector]
	trackedOnly map[*ir.Node]bool
	specialized int
	state       []PredicateState
}

func newTable() *tableEngine {
	return &tableEngine{
		facts:       make(map[*ir.Node]leaftree.Tree[ternary.Vector]),
		trackedOnly: make(map[*ir.Node]bool),
	}
}

// set records one ternary vector per leaf, written MSB first; token leaves
// take "".
func (e *tableEngine) set(n *ir.Node, leaves ...string) {
	vs := make([]ternary.Vector, len(leaves))
	for i, s := range leaves {
		vs[i] = ternary.MustParse(s)
	}
	e.facts[n] = leaftree.FromElements(n.Types(), n.Type, vs)
}

func (e *tableEngine) bit(l TreeBitLocation) ternary.Value {
	t, ok := e.facts[l.Node]
	if !ok {
		return ternary.Unknown
	}
	return t.Leaf(l.Leaf)[l.Bit]
}

func (e *tableEngine) Populate(*ir.Function) (ReachedFixpoint, error) { return Changed, nil }

func (e *tableEngine) IsTracked(n *ir.Node) bool {
	_, ok := e.facts[n]
	return ok || e.trackedOnly[n]
}

func (e *tableEngine) Ternary(n *ir.Node) (leaftree.Tree[ternary.Vector], bool) {
	t, ok := e.facts[n]
	return t, ok
}

func (e *tableEngine) AtMostOneTrue(bits []TreeBitLocation) bool {
	maybe := 0
	for _, b := range bits {
		if e.bit(b) != ternary.KnownZero {
			maybe++
		}
	}
	return maybe <= 1
}

func (e *tableEngine) AtLeastOneTrue(bits []TreeBitLocation) bool {
	for _, b := range bits {
		if e.bit(b) == ternary.KnownOne {
			return true
		}
	}
	return false
}

func (e *tableEngine) Implies(a, b TreeBitLocation) bool {
	return a == b || e.bit(a) == ternary.KnownZero || e.bit(b) == ternary.KnownOne
}

func (e *tableEngine) KnownEquals(a, b TreeBitLocation) bool {
	return a == b || (e.bit(a) != ternary.Unknown && e.bit(a) == e.bit(b))
}

func (e *tableEngine) KnownNotEquals(a, b TreeBitLocation) bool {
	x, y := e.bit(a), e.bit(b)
	return x != ternary.Unknown && y != ternary.Unknown && x != y
}

func (e *tableEngine) ImpliedNodeValue(_ []BitAssumption, n *ir.Node) (bits.Bits, bool) {
	t, ok := e.facts[n]
	if !ok || !ternary.IsFullyKnown(t.Leaf(0)) {
		return bits.Bits{}, false
	}
	return ternary.ToKnownBits(t.Leaf(0)), true
}

func (e *tableEngine) ImpliedNodeTernary(_ []BitAssumption, n *ir.Node) (ternary.Vector, bool) {
	t, ok := e.facts[n]
	if !ok {
		return nil, false
	}
	return t.Leaf(0), true
}

func (e *tableEngine) SpecializeGivenPredicate(state []PredicateState) Engine {
	e.specialized++
	out := newTable()
	for n, t := range e.facts {
		out.facts[n] = t
	}
	out.state = state
	return out
}

// testFunc returns a function to hang test nodes on.
func testFunc() (*ir.Function, *types.Interner) {
	p := ir.NewPackage("test")
	f, _ := p.AddFunction("f")
	return f, p.Types
}
