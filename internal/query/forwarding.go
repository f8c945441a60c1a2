package query

import (
	"errors"

	"bitfact/internal/bits"
	"bitfact/internal/interval"
	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/ternary"
)

// ErrForwardingPopulate is returned by Forwarding.Populate.
var ErrForwardingPopulate = errors.New("cannot populate a forwarding engine")

// Forwarding passes every query to another engine. It cannot be populated,
// and specializing it specializes the wrapped engine.
type Forwarding struct {
	real Engine
}

var (
	_ Engine         = (*Forwarding)(nil)
	_ IntervalEngine = (*Forwarding)(nil)
)

// NewForwarding wraps real.
func NewForwarding(real Engine) *Forwarding {
	return &Forwarding{real: real}
}

// Unwrap returns the wrapped engine.
func (f *Forwarding) Unwrap() Engine { return f.real }

func (f *Forwarding) Populate(*ir.Function) (ReachedFixpoint, error) {
	return Unknown, ErrForwardingPopulate
}

func (f *Forwarding) IsTracked(n *ir.Node) bool { return f.real.IsTracked(n) }

func (f *Forwarding) Ternary(n *ir.Node) (leaftree.Tree[ternary.Vector], bool) {
	return f.real.Ternary(n)
}

func (f *Forwarding) SpecializeGivenPredicate(state []PredicateState) Engine {
	return f.real.SpecializeGivenPredicate(state)
}

func (f *Forwarding) Intervals(n *ir.Node) leaftree.Tree[interval.Set] {
	return Of(f.real).Intervals(n)
}

func (f *Forwarding) AtMostOneTrue(bits []TreeBitLocation) bool {
	return f.real.AtMostOneTrue(bits)
}

func (f *Forwarding) AtLeastOneTrue(bits []TreeBitLocation) bool {
	return f.real.AtLeastOneTrue(bits)
}

func (f *Forwarding) Implies(a, b TreeBitLocation) bool { return f.real.Implies(a, b) }

func (f *Forwarding) KnownEquals(a, b TreeBitLocation) bool { return f.real.KnownEquals(a, b) }

func (f *Forwarding) KnownNotEquals(a, b TreeBitLocation) bool {
	return f.real.KnownNotEquals(a, b)
}

func (f *Forwarding) ImpliedNodeValue(assumptions []BitAssumption, n *ir.Node) (bits.Bits, bool) {
	return f.real.ImpliedNodeValue(assumptions, n)
}

func (f *Forwarding) ImpliedNodeTernary(assumptions []BitAssumption, n *ir.Node) (ternary.Vector, bool) {
	return f.real.ImpliedNodeTernary(assumptions, n)
}
