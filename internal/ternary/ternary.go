// Package ternary implements three-valued bit knowledge.
//
// A Vector holds one Value per bit, index 0 being the least significant bit.
package ternary

import (
	"fmt"
	"strings"

	"bitfact/internal/bits"
)

// Value is the knowledge about a single bit.
type Value uint8

const (
	Unknown Value = iota
	KnownZero
	KnownOne
)

func (v Value) String() string {
	switch v {
	case KnownZero:
		return "0"
	case KnownOne:
		return "1"
	default:
		return "X"
	}
}

// FromBool returns the known value for b.
func FromBool(b bool) Value {
	if b {
		return KnownOne
	}
	return KnownZero
}

// Vector is the knowledge about every bit of one leaf.
type Vector []Value

// Unknowns returns a vector of width unknown bits.
func Unknowns(width int) Vector {
	return make(Vector, width)
}

// FromKnownBits returns a fully known vector equal to b.
func FromKnownBits(b bits.Bits) Vector {
	out := make(Vector, b.Width())
	for i, set := range b.Bools() {
		out[i] = FromBool(set)
	}
	return out
}

// Parse reads a vector written MSB first, such as "0b1X0". The 0b prefix is
// optional and underscores are ignored.
func Parse(s string) (Vector, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, "_", ""), "0b")
	out := make(Vector, len(s))
	for i, c := range s {
		idx := len(s) - 1 - i
		switch c {
		case '0':
			out[idx] = KnownZero
		case '1':
			out[idx] = KnownOne
		case 'X', 'x':
			out[idx] = Unknown
		default:
			return nil, fmt.Errorf("ternary: invalid character %q in %q", c, s)
		}
	}
	return out, nil
}

// MustParse is Parse that panics on malformed input.
func MustParse(s string) Vector {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsFullyKnown reports whether no bit is unknown.
func IsFullyKnown(v Vector) bool {
	for _, b := range v {
		if b == Unknown {
			return false
		}
	}
	return true
}

// IsKnownZero reports whether every bit is known to be zero.
func IsKnownZero(v Vector) bool {
	for _, b := range v {
		if b != KnownZero {
			return false
		}
	}
	return true
}

// IsKnownOne reports whether every bit is known to be one.
func IsKnownOne(v Vector) bool {
	for _, b := range v {
		if b != KnownOne {
			return false
		}
	}
	return true
}

// ToKnownBits converts a fully known vector to concrete bits.
func ToKnownBits(v Vector) bits.Bits {
	bs := make([]bool, len(v))
	for i, b := range v {
		switch b {
		case KnownOne:
			bs[i] = true
		case Unknown:
			panic(fmt.Errorf("ternary: bit %d of %s is unknown", i, v))
		}
	}
	return bits.FromBools(bs)
}

// KnownOnes returns the bits known to be one, with unknowns as zero.
func KnownOnes(v Vector) bits.Bits {
	bs := make([]bool, len(v))
	for i, b := range v {
		bs[i] = b == KnownOne
	}
	return bits.FromBools(bs)
}

// UnknownMask returns a mask of the unknown bit positions.
func UnknownMask(v Vector) bits.Bits {
	bs := make([]bool, len(v))
	for i, b := range v {
		bs[i] = b == Unknown
	}
	return bits.FromBools(bs)
}

// CountUnknown returns the number of unknown bits.
func CountUnknown(v Vector) int {
	n := 0
	for _, b := range v {
		if b == Unknown {
			n++
		}
	}
	return n
}

// Contains reports whether the concrete value b is consistent with v.
func Contains(v Vector, b bits.Bits) bool {
	if b.Width() != len(v) {
		return false
	}
	for i, t := range v {
		if t != Unknown && (t == KnownOne) != b.Bit(i) {
			return false
		}
	}
	return true
}

// Equal compares two vectors bit by bit.
func Equal(a, b Vector) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of v.
func (v Vector) Clone() Vector {
	return append(Vector(nil), v...)
}

// String renders v MSB first with an 0b prefix, X marking unknown bits.
func (v Vector) String() string {
	var sb strings.Builder
	sb.Grow(len(v) + 2)
	sb.WriteString("0b")
	for i := len(v) - 1; i >= 0; i-- {
		sb.WriteString(v[i].String())
	}
	return sb.String()
}
