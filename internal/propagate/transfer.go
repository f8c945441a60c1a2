package propagate

import (
	"fmt"

	"bitfact/internal/bits"
	"bitfact/internal/ir"
	"bitfact/internal/ternary"
	"bitfact/internal/value"
)

// leaves is the fact of one node: a ternary vector per leaf, depth first.
// Token leaves hold an empty vector.
type leaves = []ternary.Vector

// transfer computes the fact of n from the facts of its operands.
func transfer(n *ir.Node, fact func(*ir.Node) leaves) leaves {
	in := n.Types()
	operand := func(i int) ternary.Vector { return fact(n.Operands[i])[0] }
	switch n.Op {
	case ir.OpParam:
		return unknownLeaves(n)
	case ir.OpLiteral:
		return flattenValue(n.Literal, nil)
	case ir.OpNot:
		return leaves{ternary.Not(operand(0))}
	case ir.OpAnd, ir.OpOr, ir.OpXor:
		op := map[ir.Op]func(a, b ternary.Vector) ternary.Vector{
			ir.OpAnd: ternary.And, ir.OpOr: ternary.Or, ir.OpXor: ternary.Xor,
		}[n.Op]
		acc := operand(0)
		for i := 1; i < len(n.Operands); i++ {
			acc = op(acc, operand(i))
		}
		return leaves{acc.Clone()}
	case ir.OpAdd:
		return leaves{add(operand(0), operand(1))}
	case ir.OpConcat:
		out := make(ternary.Vector, 0, in.BitCount(n.Type))
		for i := len(n.Operands) - 1; i >= 0; i-- {
			out = append(out, operand(i)...)
		}
		return leaves{out}
	case ir.OpBitSlice:
		return leaves{operand(0)[n.Start : n.Start+n.Width].Clone()}
	case ir.OpZeroExt:
		out := make(ternary.Vector, n.Width)
		copy(out, operand(0))
		for i := len(operand(0)); i < n.Width; i++ {
			out[i] = ternary.KnownZero
		}
		return leaves{out}
	case ir.OpEq, ir.OpNe:
		eq := compare(flatten(fact(n.Operands[0])), flatten(fact(n.Operands[1])))
		if n.Op == ir.OpNe {
			eq = ternary.Not(ternary.Vector{eq})[0]
		}
		return leaves{{eq}}
	case ir.OpSelect:
		return selectFact(n, fact)
	case ir.OpTuple, ir.OpArray:
		var out leaves
		for _, o := range n.Operands {
			out = append(out, fact(o)...)
		}
		return out
	case ir.OpTupleIndex:
		src := n.Operands[0]
		info, _ := in.TupleInfo(src.Type)
		off := 0
		for _, e := range info.Elems[:n.Index] {
			off += in.LeafCount(e)
		}
		return cloneLeaves(fact(src)[off : off+in.LeafCount(n.Type)])
	case ir.OpArrayIndex:
		return arrayIndexFact(n, fact)
	case ir.OpAfterAll:
		return leaves{{}}
	default:
		return unknownLeaves(n)
	}
}

func unknownLeaves(n *ir.Node) leaves {
	in := n.Types()
	lts := in.LeafTypes(n.Type)
	out := make(leaves, len(lts))
	for i, lt := range lts {
		out[i] = ternary.Unknowns(in.FlatBitCount(lt))
	}
	return out
}

func cloneLeaves(ls leaves) leaves {
	out := make(leaves, len(ls))
	for i, l := range ls {
		out[i] = l.Clone()
	}
	return out
}

func meetLeaves(a, b leaves) leaves {
	out := make(leaves, len(a))
	for i := range a {
		out[i] = ternary.Meet(a[i], b[i])
	}
	return out
}

// flattenValue appends the leaves of v depth first.
func flattenValue(v value.Value, out leaves) leaves {
	switch v.Kind() {
	case value.KindBits:
		return append(out, ternary.FromKnownBits(v.Bits()))
	case value.KindToken:
		return append(out, ternary.Vector{})
	case value.KindTuple, value.KindArray:
		for _, e := range v.Elements() {
			out = flattenValue(e, out)
		}
		return out
	default:
		panic(fmt.Errorf("propagate: literal of kind %s", v.Kind()))
	}
}

// add is a ripple-carry adder over ternary bits. Once the carry is unknown
// every higher sum bit is unknown too.
func add(a, b ternary.Vector) ternary.Vector {
	out := make(ternary.Vector, len(a))
	carry := ternary.KnownZero
	for i := range a {
		x, y := a[i], b[i]
		if x == ternary.Unknown || y == ternary.Unknown || carry == ternary.Unknown {
			out[i] = ternary.Unknown
			// The carry is still known when two of the three inputs agree.
			switch {
			case x == y && x != ternary.Unknown:
				carry = x
			case x == carry && x != ternary.Unknown:
				carry = x
			case y == carry && y != ternary.Unknown:
				carry = y
			default:
				carry = ternary.Unknown
			}
			continue
		}
		ones := 0
		for _, v := range [...]ternary.Value{x, y, carry} {
			if v == ternary.KnownOne {
				ones++
			}
		}
		out[i] = ternary.FromBool(ones%2 == 1)
		carry = ternary.FromBool(ones >= 2)
	}
	return out
}

func flatten(ls leaves) ternary.Vector {
	var out ternary.Vector
	for _, l := range ls {
		out = append(out, l...)
	}
	return out
}

// compare returns the ternary result of a == b.
func compare(a, b ternary.Vector) ternary.Value {
	all := true
	for i := range a {
		switch {
		case a[i] == ternary.Unknown || b[i] == ternary.Unknown:
			all = false
		case a[i] != b[i]:
			return ternary.KnownZero
		}
	}
	if all {
		return ternary.KnownOne
	}
	return ternary.Unknown
}

// possibleIndices returns the in-range values of sel consistent with its fact
// and whether some value at or past limit is also possible.
func possibleIndices(sel ternary.Vector, limit int) (idx []int, overflow bool) {
	for i := range limit {
		if fitsWidth(i, len(sel)) && ternary.Contains(sel, bits.FromUint64(uint64(i), len(sel))) {
			idx = append(idx, i)
		}
	}
	// Unknown bits count as one for the largest possible selector value.
	maxVal := make([]bool, len(sel))
	for i, v := range sel {
		maxVal[i] = v != ternary.KnownZero
	}
	limitBits := bits.FromUint64(uint64(limit), max(len(sel), 64))
	overflow = bits.UCompare(bits.FromBools(maxVal), limitBits) >= 0
	return idx, overflow
}

func fitsWidth(i, width int) bool {
	return width >= 63 || i < 1<<width
}

func selectFact(n *ir.Node, fact func(*ir.Node) leaves) leaves {
	sel := fact(n.Selector())[0]
	cases := n.Cases()
	idx, overflow := possibleIndices(sel, len(cases))
	var out leaves
	merge := func(ls leaves) {
		if out == nil {
			out = cloneLeaves(ls)
			return
		}
		out = meetLeaves(out, ls)
	}
	for _, i := range idx {
		merge(fact(cases[i]))
	}
	if def, ok := n.Default(); ok && overflow {
		merge(fact(def))
	}
	if out == nil {
		// No arm is reachable under the current facts.
		return unknownLeaves(n)
	}
	return out
}

func arrayIndexFact(n *ir.Node, fact func(*ir.Node) leaves) leaves {
	arr, index := n.Operands[0], n.Operands[1]
	in := n.Types()
	_, size, _ := in.ArrayInfo(arr.Type)
	per := in.LeafCount(n.Type)
	src := fact(arr)
	idx, overflow := possibleIndices(fact(index)[0], size)
	if overflow && (len(idx) == 0 || idx[len(idx)-1] != size-1) {
		idx = append(idx, size-1)
	}
	var out leaves
	for _, i := range idx {
		elem := src[i*per : (i+1)*per]
		if out == nil {
			out = cloneLeaves(elem)
		} else {
			out = meetLeaves(out, elem)
		}
	}
	if out == nil {
		return unknownLeaves(n)
	}
	return out
}
