package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Interner provides stable TypeIDs by hashing structural descriptors.
//
// Two structurally identical types requested from the same Interner always
// get the same TypeID, so type equality is TypeID equality. The interner is
// single-writer: creating types concurrently with any other access is not
// allowed, while concurrent reads of existing types are.
type Interner struct {
	types      []Type
	index      map[typeKey]TypeID
	tuples     []TupleInfo
	tupleIndex map[string]TypeID
	fns        []FnInfo
	fnIndex    map[string]TypeID
	layouts    []leafLayout
	token      TypeID
}

// leafLayout is computed once when a type is interned so that later leaf
// queries never write to the interner.
type leafLayout struct {
	leaves   []TypeID
	flatBits int
	hasToken bool
}

// NewInterner constructs an interner with the token type pre-registered.
func NewInterner() *Interner {
	in := &Interner{
		index:      make(map[typeKey]TypeID, 64),
		tupleIndex: make(map[string]TypeID, 16),
		fnIndex:    make(map[string]TypeID, 16),
	}
	in.internRaw(Type{Kind: KindInvalid}) // reserve 0 as NoTypeID
	in.tuples = append(in.tuples, TupleInfo{})
	in.fns = append(in.fns, FnInfo{})
	in.token = in.intern(Type{Kind: KindToken})
	return in
}

// Bits returns the canonical bits[width] type.
func (in *Interner) Bits(width int) TypeID {
	w, err := safecast.Conv[uint32](width)
	if err != nil {
		panic(fmt.Errorf("types: invalid bit width %d: %w", width, err))
	}
	return in.intern(MakeBits(w))
}

// Array returns the canonical elem[size] type. elem may only be NoTypeID for
// an empty array, where no element type can be inferred.
func (in *Interner) Array(size int, elem TypeID) TypeID {
	n, err := safecast.Conv[uint32](size)
	if err != nil {
		panic(fmt.Errorf("types: invalid array size %d: %w", size, err))
	}
	if elem != NoTypeID || size != 0 {
		in.requireOwned(elem)
	}
	return in.intern(MakeArray(elem, n))
}

// Token returns the single token type.
func (in *Interner) Token() TypeID {
	return in.token
}

// Intern ensures the provided bits/array/token descriptor has a stable TypeID.
// Tuples and functions go through Tuple and Fn.
func (in *Interner) Intern(t Type) TypeID {
	switch t.Kind {
	case KindInvalid:
		return NoTypeID
	case KindTuple, KindFn:
		panic(fmt.Errorf("types: %s descriptors must be registered through their constructor", t.Kind))
	case KindArray:
		if t.Elem != NoTypeID || t.Count != 0 {
			in.requireOwned(t.Elem)
		}
	}
	return in.intern(t)
}

func (in *Interner) intern(t Type) TypeID {
	key := typeKey{Kind: t.Kind, Elem: t.Elem, Count: t.Count}
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// internRaw adds the descriptor to the storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.layouts = append(in.layouts, in.computeLayout(id, t))
	return id
}

func (in *Interner) computeLayout(id TypeID, t Type) leafLayout {
	switch t.Kind {
	case KindBits:
		return leafLayout{leaves: []TypeID{id}, flatBits: int(t.Count)}
	case KindToken:
		return leafLayout{leaves: []TypeID{id}, hasToken: true}
	case KindArray:
		if t.Elem == NoTypeID {
			return leafLayout{}
		}
		elem := in.layouts[t.Elem]
		out := leafLayout{
			leaves:   make([]TypeID, 0, len(elem.leaves)*int(t.Count)),
			flatBits: elem.flatBits * int(t.Count),
			hasToken: elem.hasToken && t.Count > 0,
		}
		for range t.Count {
			out.leaves = append(out.leaves, elem.leaves...)
		}
		return out
	case KindTuple:
		var out leafLayout
		for _, e := range in.tuples[t.Payload].Elems {
			l := in.layouts[e]
			out.leaves = append(out.leaves, l.leaves...)
			out.flatBits += l.flatBits
			out.hasToken = out.hasToken || l.hasToken
		}
		return out
	default:
		return leafLayout{}
	}
}

// Len returns the number of interned types, including the reserved slot.
func (in *Interner) Len() int {
	return len(in.types)
}

// IsOwned reports whether id is a live handle of this interner.
func (in *Interner) IsOwned(id TypeID) bool {
	return in != nil && id != NoTypeID && int(id) < len(in.types)
}

func (in *Interner) requireOwned(id TypeID) {
	if !in.IsOwned(id) {
		panic(fmt.Errorf("types: type %d is not owned by this interner", id))
	}
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if !in.IsOwned(id) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns the kind of id, KindInvalid for unknown handles.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

func (in *Interner) IsBits(id TypeID) bool  { return in.Kind(id) == KindBits }
func (in *Interner) IsToken(id TypeID) bool { return in.Kind(id) == KindToken }

// BitCount returns the width of a bits type and panics for any other kind.
func (in *Interner) BitCount(id TypeID) int {
	tt := in.MustLookup(id)
	if tt.Kind != KindBits {
		panic(fmt.Errorf("types: %s is not a bits type", in.String(id)))
	}
	return int(tt.Count)
}

// FlatBitCount returns the total number of bits over all leaves.
func (in *Interner) FlatBitCount(id TypeID) int {
	in.requireOwned(id)
	return in.layouts[id].flatBits
}

// LeafCount returns the number of scalar leaves of id.
func (in *Interner) LeafCount(id TypeID) int {
	in.requireOwned(id)
	return len(in.layouts[id].leaves)
}

// LeafTypes returns the leaf types of id in depth-first order. The returned
// slice is shared and must not be modified.
func (in *Interner) LeafTypes(id TypeID) []TypeID {
	in.requireOwned(id)
	return in.layouts[id].leaves
}

// HasToken reports whether id transitively contains a token leaf.
func (in *Interner) HasToken(id TypeID) bool {
	in.requireOwned(id)
	return in.layouts[id].hasToken
}

type typeKey struct {
	Kind  Kind
	Elem  TypeID
	Count uint32
}
