package query

import (
	"fmt"

	"bitfact/internal/bits"
	"bitfact/internal/interval"
	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/ternary"
)

// ReachedFixpoint tells whether Populate changed the fact table.
type ReachedFixpoint uint8

const (
	Unchanged ReachedFixpoint = iota
	Changed
	Unknown
)

func (r ReachedFixpoint) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	default:
		return "unknown"
	}
}

// TreeBitLocation addresses bit Bit of leaf Leaf of Node. Leaf is the
// depth-first leaf ordinal and is 0 for a bits-typed node.
type TreeBitLocation struct {
	Node *ir.Node
	Leaf int
	Bit  int
}

// BitOf addresses bit i of a bits-typed node.
func BitOf(n *ir.Node, i int) TreeBitLocation {
	return TreeBitLocation{Node: n, Bit: i}
}

// TreeBit addresses bit i of the leaf at path inside n.
func TreeBit(n *ir.Node, path []int, i int) TreeBitLocation {
	return TreeBitLocation{Node: n, Leaf: leaftree.LeafIndex(n.Types(), n.Type, path), Bit: i}
}

func (l TreeBitLocation) String() string {
	if l.Leaf == 0 && l.Node.IsBits() {
		return fmt.Sprintf("%s[%d]", l.Node.Name, l.Bit)
	}
	return fmt.Sprintf("%s{%d}[%d]", l.Node.Name, l.Leaf, l.Bit)
}

// BitAssumption is a hypothetical truth value for one bit.
type BitAssumption struct {
	Bit   TreeBitLocation
	Value bool
}

// DefaultArm marks the default case of a select in a PredicateState.
const DefaultArm = -1

// PredicateState names one arm of a select: "we are in the context where the
// select chose arm Arm".
type PredicateState struct {
	Select *ir.Node
	Arm    int
}

// Engine is the primitive query contract.
type Engine interface {
	// Populate computes facts for the nodes of f.
	Populate(f *ir.Function) (ReachedFixpoint, error)
	// IsTracked reports whether any fact is recorded for n.
	IsTracked(n *ir.Node) bool
	// Ternary returns the per-leaf ternary fact of n, shaped like n's type.
	Ternary(n *ir.Node) (leaftree.Tree[ternary.Vector], bool)

	// AtMostOneTrue reports whether at most one of bits can be one.
	AtMostOneTrue(bits []TreeBitLocation) bool
	// AtLeastOneTrue reports whether at least one of bits must be one.
	AtLeastOneTrue(bits []TreeBitLocation) bool
	// Implies reports whether a being one forces b to be one.
	Implies(a, b TreeBitLocation) bool
	KnownEquals(a, b TreeBitLocation) bool
	KnownNotEquals(a, b TreeBitLocation) bool

	// ImpliedNodeValue returns the value n must take if every assumption holds.
	ImpliedNodeValue(assumptions []BitAssumption, n *ir.Node) (bits.Bits, bool)
	// ImpliedNodeTernary returns what is known about n if every assumption holds.
	ImpliedNodeTernary(assumptions []BitAssumption, n *ir.Node) (ternary.Vector, bool)

	// SpecializeGivenPredicate returns an engine that may use the assumptions
	// in state. The receiver is not modified.
	SpecializeGivenPredicate(state []PredicateState) Engine
}

// IntervalEngine is implemented by engines that track ranges more precisely
// than their ternary facts describe.
type IntervalEngine interface {
	Intervals(n *ir.Node) leaftree.Tree[interval.Set]
}

// Unspecialized is the specialization of an engine that gains nothing from
// predicates: a forwarding view of e.
func Unspecialized(e Engine) Engine {
	return NewForwarding(e)
}
