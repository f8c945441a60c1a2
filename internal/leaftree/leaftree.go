// Package leaftree stores one value per scalar leaf of a type.
//
// Leaves are the bits and token positions of a possibly nested array/tuple
// type, enumerated depth first. A Tree keeps its leaves in a flat slice; the
// mapping from the nested shape to leaf ordinals comes from the interner's
// precomputed leaf layout, so no query re-walks the type to find a leaf.
package leaftree

import (
	"fmt"
	"strings"

	"bitfact/internal/types"
	"bitfact/internal/value"
)

// Tree holds one T per leaf of a type.
type Tree[T any] struct {
	in    *types.Interner
	typ   types.TypeID
	elems []T
}

// New fills every leaf with fn(leafType).
func New[T any](in *types.Interner, typ types.TypeID, fn func(leafType types.TypeID) T) Tree[T] {
	leaves := in.LeafTypes(typ)
	elems := make([]T, len(leaves))
	for i, lt := range leaves {
		elems[i] = fn(lt)
	}
	return Tree[T]{in: in, typ: typ, elems: elems}
}

// FromElements wraps elems, which must hold exactly one value per leaf.
func FromElements[T any](in *types.Interner, typ types.TypeID, elems []T) Tree[T] {
	if n := in.LeafCount(typ); n != len(elems) {
		panic(fmt.Errorf("leaftree: %s has %d leaves, got %d elements", in.String(typ), n, len(elems)))
	}
	return Tree[T]{in: in, typ: typ, elems: elems}
}

func (t Tree[T]) Type() types.TypeID        { return t.typ }
func (t Tree[T]) Interner() *types.Interner { return t.in }
func (t Tree[T]) Len() int                  { return len(t.elems) }

// IsValid reports whether t was built by a constructor of this package.
func (t Tree[T]) IsValid() bool { return t.in != nil }

// Elements returns the leaves in depth-first order. The slice is shared.
func (t Tree[T]) Elements() []T { return t.elems }

// LeafTypes returns the type of each leaf.
func (t Tree[T]) LeafTypes() []types.TypeID { return t.in.LeafTypes(t.typ) }

// Leaf returns the value of leaf i.
func (t Tree[T]) Leaf(i int) T { return t.elems[i] }

// Set replaces the value of leaf i in place.
func (t Tree[T]) Set(i int, v T) { t.elems[i] = v }

// Get returns the leaf addressed by a nested path of tuple element and array
// indices. An empty path addresses the root of a scalar type.
func (t Tree[T]) Get(path ...int) T {
	return t.elems[LeafIndex(t.in, t.typ, path)]
}

// AllOf reports whether pred holds for every leaf.
func (t Tree[T]) AllOf(pred func(T) bool) bool {
	return Fold(t, true, func(ok bool, e T) bool { return ok && pred(e) })
}

// Clone copies the leaf slice; leaf values themselves are copied shallowly.
func (t Tree[T]) Clone() Tree[T] {
	return Tree[T]{in: t.in, typ: t.typ, elems: append([]T(nil), t.elems...)}
}

// LeafIndex converts a nested path into the depth-first leaf ordinal. The path
// must end at a leaf.
func LeafIndex(in *types.Interner, typ types.TypeID, path []int) int {
	offset := 0
	cur := typ
	for depth, idx := range path {
		switch in.Kind(cur) {
		case types.KindTuple:
			info, _ := in.TupleInfo(cur)
			if idx < 0 || idx >= len(info.Elems) {
				panic(fmt.Errorf("leaftree: tuple index %d out of range for %s", idx, in.String(cur)))
			}
			for _, e := range info.Elems[:idx] {
				offset += in.LeafCount(e)
			}
			cur = info.Elems[idx]
		case types.KindArray:
			elem, size, _ := in.ArrayInfo(cur)
			if idx < 0 || idx >= size {
				panic(fmt.Errorf("leaftree: array index %d out of range for %s", idx, in.String(cur)))
			}
			offset += idx * in.LeafCount(elem)
			cur = elem
		default:
			panic(fmt.Errorf("leaftree: path %v descends into leaf %s at depth %d", path, in.String(cur), depth))
		}
	}
	if k := in.Kind(cur); k != types.KindBits && k != types.KindToken {
		panic(fmt.Errorf("leaftree: path %v stops at non-leaf %s", path, in.String(cur)))
	}
	return offset
}

// Fold combines the leaves in depth-first order, starting from init.
func Fold[T, A any](t Tree[T], init A, fn func(acc A, v T) A) A {
	acc := init
	for _, e := range t.elems {
		acc = fn(acc, e)
	}
	return acc
}

// Map applies fn to every leaf, keeping the shape.
func Map[T, U any](t Tree[T], fn func(T) U) Tree[U] {
	out := make([]U, len(t.elems))
	for i, e := range t.elems {
		out[i] = fn(e)
	}
	return Tree[U]{in: t.in, typ: t.typ, elems: out}
}

// MapIndex applies fn to every leaf along with its type and ordinal.
func MapIndex[T, U any](t Tree[T], fn func(leafType types.TypeID, v T, leaf int) (U, error)) (Tree[U], error) {
	leaves := t.LeafTypes()
	out := make([]U, len(t.elems))
	for i, e := range t.elems {
		u, err := fn(leaves[i], e, i)
		if err != nil {
			return Tree[U]{}, err
		}
		out[i] = u
	}
	return Tree[U]{in: t.in, typ: t.typ, elems: out}, nil
}

// Equal compares shapes and leaves.
func Equal[T any](a, b Tree[T], eq func(T, T) bool) bool {
	if a.typ != b.typ || len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !eq(a.elems[i], b.elems[i]) {
			return false
		}
	}
	return true
}

// String renders the tree in the shape of its type: tuples as (a, b), arrays
// as [a, b], leaves through format.
func (t Tree[T]) String(format func(T) string) string {
	var sb strings.Builder
	next := 0
	t.write(&sb, t.typ, &next, format)
	return sb.String()
}

func (t Tree[T]) write(sb *strings.Builder, typ types.TypeID, next *int, format func(T) string) {
	switch t.in.Kind(typ) {
	case types.KindTuple:
		info, _ := t.in.TupleInfo(typ)
		sb.WriteByte('(')
		for i, e := range info.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			t.write(sb, e, next, format)
		}
		sb.WriteByte(')')
	case types.KindArray:
		elem, size, _ := t.in.ArrayInfo(typ)
		sb.WriteByte('[')
		for i := range size {
			if i > 0 {
				sb.WriteString(", ")
			}
			t.write(sb, elem, next, format)
		}
		sb.WriteByte(']')
	default:
		sb.WriteString(format(t.elems[*next]))
		*next++
	}
}

// ToValue reassembles a value tree from per-leaf values.
func ToValue(t Tree[value.Value]) (value.Value, error) {
	next := 0
	return toValue(t, t.typ, &next)
}

func toValue(t Tree[value.Value], typ types.TypeID, next *int) (value.Value, error) {
	switch t.in.Kind(typ) {
	case types.KindTuple:
		info, _ := t.in.TupleInfo(typ)
		elems := make([]value.Value, 0, len(info.Elems))
		for _, e := range info.Elems {
			v, err := toValue(t, e, next)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		return value.Tuple(elems...), nil
	case types.KindArray:
		elemType, size, _ := t.in.ArrayInfo(typ)
		elems := make([]value.Value, 0, size)
		for range size {
			v, err := toValue(t, elemType, next)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		return value.Array(elems...), nil
	case types.KindBits, types.KindToken:
		v := t.elems[*next]
		*next++
		if want := t.in.Kind(typ); (want == types.KindToken && !v.IsToken()) || (want == types.KindBits && !v.IsBits()) {
			return value.Value{}, fmt.Errorf("leaftree: leaf %d holds %s, type is %s", *next-1, v.Kind(), t.in.String(typ))
		}
		if v.IsBits() && v.Bits().Width() != t.in.BitCount(typ) {
			return value.Value{}, fmt.Errorf("leaftree: leaf %d has width %d, type is %s", *next-1, v.Bits().Width(), t.in.String(typ))
		}
		return v, nil
	default:
		return value.Value{}, fmt.Errorf("leaftree: cannot build a value of type %s", t.in.String(typ))
	}
}
