package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBits
	KindArray
	KindTuple
	KindFn
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBits:
		return "bits"
	case KindArray:
		return "array"
	case KindTuple:
		return "tuple"
	case KindFn:
		return "fn"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // array element (NoTypeID for an empty array built from a value)
	Count   uint32 // bit width for bits, element count for arrays
	Payload uint32 // slot in the tuple/fn side tables
}

// Descriptor helpers ---------------------------------------------------------

// MakeBits describes a bit vector of the given width.
func MakeBits(width uint32) Type {
	return Type{Kind: KindBits, Count: width}
}

// MakeArray describes a fixed-size array of elem.
func MakeArray(elem TypeID, count uint32) Type {
	return Type{Kind: KindArray, Elem: elem, Count: count}
}
