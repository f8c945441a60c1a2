package query

import (
	"fmt"

	"bitfact/internal/bits"
	"bitfact/internal/interval"
	"bitfact/internal/ir"
	"bitfact/internal/leaftree"
	"bitfact/internal/ternary"
	"bitfact/internal/types"
	"bitfact/internal/value"
)

// MaxTernaryIntervalBits bounds how many unknown bits are enumerated when a
// ternary fact is turned into intervals: each leaf gets at most
// 1<<MaxTernaryIntervalBits ranges.
const MaxTernaryIntervalBits = 4

// Q answers derived queries using only the primitives of an Engine.
type Q struct {
	e Engine
}

// Of wraps e.
func Of(e Engine) Q {
	return Q{e: e}
}

// Engine returns the wrapped engine.
func (q Q) Engine() Engine { return q.e }

// fact returns the ternary fact for n when n is tracked and has one.
func (q Q) fact(n *ir.Node) (leaftree.Tree[ternary.Vector], bool) {
	if !q.e.IsTracked(n) {
		return leaftree.Tree[ternary.Vector]{}, false
	}
	return q.e.Ternary(n)
}

// bitsTernary is ternary for a bits-typed node, or unknowns of its width.
func (q Q) bitsTernary(n *ir.Node) ternary.Vector {
	if t, ok := q.fact(n); ok {
		return t.Leaf(0)
	}
	return ternary.Unknowns(n.BitCount())
}

// IsKnown reports whether the bit has a known value.
func (q Q) IsKnown(bit TreeBitLocation) bool {
	_, ok := q.KnownValue(bit)
	return ok
}

// KnownValue returns the value of a bit when it is known.
func (q Q) KnownValue(bit TreeBitLocation) (bool, bool) {
	t, ok := q.fact(bit.Node)
	if !ok {
		return false, false
	}
	switch t.Leaf(bit.Leaf)[bit.Bit] {
	case ternary.KnownZero:
		return false, true
	case ternary.KnownOne:
		return true, true
	default:
		return false, false
	}
}

// IsOne reports whether the bit is known to be one.
func (q Q) IsOne(bit TreeBitLocation) bool {
	v, ok := q.KnownValue(bit)
	return ok && v
}

// IsZero reports whether the bit is known to be zero.
func (q Q) IsZero(bit TreeBitLocation) bool {
	v, ok := q.KnownValue(bit)
	return ok && !v
}

// KnownNodeValue returns the value of n when every bit of every leaf is
// known. Partial knowledge yields nothing.
func (q Q) KnownNodeValue(n *ir.Node) (value.Value, bool) {
	t, ok := q.fact(n)
	if !ok || !t.AllOf(ternary.IsFullyKnown) {
		return value.Value{}, false
	}
	in := n.Types()
	leaves, err := leaftree.MapIndex(t, func(leafType types.TypeID, v ternary.Vector, _ int) (value.Value, error) {
		if in.IsToken(leafType) {
			return value.Token(), nil
		}
		return value.FromBits(ternary.ToKnownBits(v)), nil
	})
	if err != nil {
		panic(fmt.Errorf("query: %s: %w", n.Name, err))
	}
	v, err := leaftree.ToValue(leaves)
	if err != nil {
		panic(fmt.Errorf("query: %s: %w", n.Name, err))
	}
	return v, true
}

// KnownValueAsBits is KnownNodeValue for a bits-typed node.
func (q Q) KnownValueAsBits(n *ir.Node) (bits.Bits, bool) {
	requireBits(n)
	v, ok := q.KnownNodeValue(n)
	if !ok {
		return bits.Bits{}, false
	}
	return v.Bits(), true
}

// IsMsbKnown reports whether the most significant bit of n is known. A
// zero-width node has no known MSB.
func (q Q) IsMsbKnown(n *ir.Node) bool {
	requireBits(n)
	if n.BitCount() == 0 {
		return false
	}
	return q.IsKnown(BitOf(n, n.BitCount()-1))
}

// KnownMsb returns the most significant bit of n; it must be known.
func (q Q) KnownMsb(n *ir.Node) bool {
	if !q.IsMsbKnown(n) {
		panic(fmt.Errorf("query: MSB of %s is not known", n.Name))
	}
	v, _ := q.KnownValue(BitOf(n, n.BitCount()-1))
	return v
}

// ExactlyOneBitUnknown returns the only unknown bit of n. It reports nothing
// both when every bit is known and when several are unknown.
func (q Q) ExactlyOneBitUnknown(n *ir.Node) (TreeBitLocation, bool) {
	requireBits(n)
	var (
		found   TreeBitLocation
		haveOne bool
	)
	for i, b := range q.bitsTernary(n) {
		if b != ternary.Unknown {
			continue
		}
		if haveOne {
			return TreeBitLocation{}, false
		}
		found, haveOne = BitOf(n, i), true
	}
	return found, haveOne
}

// AtMostOneBitTrue reports whether at most one bit of n can be one.
func (q Q) AtMostOneBitTrue(n *ir.Node) bool {
	return q.e.AtMostOneTrue(bitLocations(n))
}

// AtLeastOneBitTrue reports whether some bit of n must be one.
func (q Q) AtLeastOneBitTrue(n *ir.Node) bool {
	return q.e.AtLeastOneTrue(bitLocations(n))
}

// ExactlyOneBitTrue reports whether n is known to be one-hot.
func (q Q) ExactlyOneBitTrue(n *ir.Node) bool {
	return q.AtLeastOneBitTrue(n) && q.AtMostOneBitTrue(n)
}

// AtMostOneNodeTrue reports whether at most one of the single-bit preds can be
// one.
func (q Q) AtMostOneNodeTrue(preds []*ir.Node) bool {
	return q.e.AtMostOneTrue(predLocations(preds))
}

// AtLeastOneNodeTrue reports whether one of the single-bit preds must be one.
func (q Q) AtLeastOneNodeTrue(preds []*ir.Node) bool {
	return q.e.AtLeastOneTrue(predLocations(preds))
}

// IsAllZeros reports whether every bit of n is known zero. Nodes with a token
// anywhere in their type never qualify.
func (q Q) IsAllZeros(n *ir.Node) bool {
	return q.allLeaves(n, ternary.IsKnownZero)
}

// IsAllOnes reports whether every bit of n is known one.
func (q Q) IsAllOnes(n *ir.Node) bool {
	return q.allLeaves(n, ternary.IsKnownOne)
}

// IsFullyKnown reports whether every bit of n is known.
func (q Q) IsFullyKnown(n *ir.Node) bool {
	return q.allLeaves(n, ternary.IsFullyKnown)
}

func (q Q) allLeaves(n *ir.Node, pred func(ternary.Vector) bool) bool {
	if n.Types().HasToken(n.Type) {
		return false
	}
	t, ok := q.fact(n)
	return ok && t.AllOf(pred)
}

// MaxUnsignedValue is the largest value n can take: unknown bits count as one.
func (q Q) MaxUnsignedValue(n *ir.Node) bits.Bits {
	requireBits(n)
	v := q.bitsTernary(n)
	out := make([]bool, len(v))
	for i, b := range v {
		out[i] = b != ternary.KnownZero
	}
	return bits.FromBools(out)
}

// MinUnsignedValue is the smallest value n can take: unknown bits count as
// zero.
func (q Q) MinUnsignedValue(n *ir.Node) bits.Bits {
	requireBits(n)
	v := q.bitsTernary(n)
	out := make([]bool, len(v))
	for i, b := range v {
		out[i] = b == ternary.KnownOne
	}
	return bits.FromBools(out)
}

// NodesKnownUnsignedNotEquals proves a != b when some bit position, after
// zero-extending the narrower node, is known on both sides and differs. A
// false result is not a proof of equality.
func (q Q) NodesKnownUnsignedNotEquals(a, b *ir.Node) bool {
	requireBits(a)
	requireBits(b)
	av, bv := q.bitsTernary(a), q.bitsTernary(b)
	at := func(v ternary.Vector, i int) ternary.Value {
		if i >= len(v) {
			return ternary.KnownZero
		}
		return v[i]
	}
	for i := range max(len(av), len(bv)) {
		x, y := at(av, i), at(bv, i)
		if x != ternary.Unknown && y != ternary.Unknown && x != y {
			return true
		}
	}
	return false
}

// NodesKnownUnsignedEquals proves a == b: either they are the same node or
// both are fully known with equal unsigned values. It is not the complement
// of NodesKnownUnsignedNotEquals; both may be false.
func (q Q) NodesKnownUnsignedEquals(a, b *ir.Node) bool {
	requireBits(a)
	requireBits(b)
	if a == b {
		return true
	}
	av, ok := q.KnownValueAsBits(a)
	if !ok {
		return false
	}
	bv, ok := q.KnownValueAsBits(b)
	if !ok {
		return false
	}
	return bits.UEqual(av, bv)
}

// Intervals returns per-leaf interval sets covering every value n can take.
func (q Q) Intervals(n *ir.Node) leaftree.Tree[interval.Set] {
	if ie, ok := q.e.(IntervalEngine); ok {
		return ie.Intervals(n)
	}
	return TernaryIntervals(q.e, n)
}

// TernaryIntervals converts the ternary fact of n into intervals. Without a
// fact every leaf gets the maximal set for its width.
func TernaryIntervals(e Engine, n *ir.Node) leaftree.Tree[interval.Set] {
	in := n.Types()
	t, ok := Q{e: e}.fact(n)
	if !ok {
		return leaftree.New(in, n.Type, func(leaf types.TypeID) interval.Set {
			return interval.Maximal(in.FlatBitCount(leaf))
		})
	}
	return leaftree.Map(t, func(v ternary.Vector) interval.Set {
		return interval.FromTernary(v, MaxTernaryIntervalBits)
	})
}

// String renders the ternary fact of n, e.g. 0b1X0 or (0b1, token). n must be
// tracked.
func (q Q) String(n *ir.Node) string {
	if !q.e.IsTracked(n) {
		panic(fmt.Errorf("query: %s is not tracked", n.Name))
	}
	in := n.Types()
	t, ok := q.e.Ternary(n)
	if !ok {
		t = leaftree.New(in, n.Type, func(leaf types.TypeID) ternary.Vector {
			return ternary.Unknowns(in.FlatBitCount(leaf))
		})
	}
	if t.Type() != n.Type {
		panic(fmt.Errorf("query: fact for %s has type %s, node has %s", n.Name, in.String(t.Type()), in.String(n.Type)))
	}
	if in.IsBits(n.Type) {
		return t.Leaf(0).String()
	}
	rendered, _ := leaftree.MapIndex(t, func(leafType types.TypeID, v ternary.Vector, _ int) (string, error) {
		if in.IsToken(leafType) {
			return "token", nil
		}
		return v.String(), nil
	})
	return rendered.String(func(s string) string { return s })
}

func requireBits(n *ir.Node) {
	if !n.IsBits() {
		panic(fmt.Errorf("query: %s has non-bits type %s", n.Name, n.Types().String(n.Type)))
	}
}

func bitLocations(n *ir.Node) []TreeBitLocation {
	requireBits(n)
	out := make([]TreeBitLocation, n.BitCount())
	for i := range out {
		out[i] = BitOf(n, i)
	}
	return out
}

func predLocations(preds []*ir.Node) []TreeBitLocation {
	out := make([]TreeBitLocation, len(preds))
	for i, p := range preds {
		requireBits(p)
		if p.BitCount() != 1 {
			panic(fmt.Errorf("query: predicate %s has width %d, want 1", p.Name, p.BitCount()))
		}
		out[i] = BitOf(p, 0)
	}
	return out
}
