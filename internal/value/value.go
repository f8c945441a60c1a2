// Package value holds concrete IR values.
package value

import (
	"fmt"
	"strings"

	"bitfact/internal/bits"
)

// Kind enumerates the shapes a Value can take.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBits
	KindTuple
	KindArray
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindBits:
		return "bits"
	case KindTuple:
		return "tuple"
	case KindArray:
		return "array"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is an immutable concrete value tree.
type Value struct {
	kind  Kind
	bits  bits.Bits
	elems []Value
}

// FromBits wraps a bit vector.
func FromBits(b bits.Bits) Value {
	return Value{kind: KindBits, bits: b}
}

// UBits is shorthand for FromBits(bits.FromUint64(v, width)).
func UBits(v uint64, width int) Value {
	return FromBits(bits.FromUint64(v, width))
}

// Tuple builds a tuple value.
func Tuple(elems ...Value) Value {
	return Value{kind: KindTuple, elems: append([]Value(nil), elems...)}
}

// Array builds an array value. Elements are expected to share a shape.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: append([]Value(nil), elems...)}
}

// Token returns the token value.
func Token() Value {
	return Value{kind: KindToken}
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsBits() bool  { return v.kind == KindBits }
func (v Value) IsToken() bool { return v.kind == KindToken }

// Bits returns the bit vector of a bits value; it panics otherwise.
func (v Value) Bits() bits.Bits {
	if v.kind != KindBits {
		panic(fmt.Errorf("value: Bits() on %s value", v.kind))
	}
	return v.bits
}

// Elements returns the elements of a tuple or array value.
func (v Value) Elements() []Value {
	return v.elems
}

// Len returns the number of elements of a tuple or array value.
func (v Value) Len() int { return len(v.elems) }

// Equal compares two values structurally.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBits:
		return v.bits.Equal(o.bits)
	case KindTuple, KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBits:
		return v.bits.Hex()
	case KindToken:
		return "token"
	case KindTuple, KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		if v.kind == KindTuple {
			return "(" + strings.Join(parts, ", ") + ")"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return "<invalid>"
	}
}
