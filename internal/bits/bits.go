// Package bits implements fixed-width unsigned bit vectors.
//
// Bit index 0 is the least significant bit. A Bits value is immutable; every
// operation returns a fresh vector.
package bits

import (
	"fmt"
	"math/big"
	"strings"

	"fortio.org/safecast"
)

// Bits is an unsigned bit vector of a fixed width.
type Bits struct {
	width int
	v     *big.Int
}

// Zero returns the all-zeros vector of the given width.
func Zero(width int) Bits {
	checkWidth(width)
	return Bits{width: width, v: new(big.Int)}
}

// AllOnes returns the all-ones vector of the given width.
func AllOnes(width int) Bits {
	checkWidth(width)
	return Bits{width: width, v: mask(width)}
}

// FromUint64 truncates v to width bits.
func FromUint64(v uint64, width int) Bits {
	checkWidth(width)
	n := new(big.Int).SetUint64(v)
	return Bits{width: width, v: n.And(n, mask(width))}
}

// FromBigInt truncates a non-negative integer to width bits.
func FromBigInt(v *big.Int, width int) Bits {
	checkWidth(width)
	if v.Sign() < 0 {
		panic(fmt.Errorf("bits: negative value %s", v))
	}
	n := new(big.Int).And(v, mask(width))
	return Bits{width: width, v: n}
}

// FromBools builds a vector where bs[i] is bit i.
func FromBools(bs []bool) Bits {
	n := new(big.Int)
	for i, b := range bs {
		if b {
			n.SetBit(n, i, 1)
		}
	}
	return Bits{width: len(bs), v: n}
}

// Width returns the number of bits.
func (b Bits) Width() int { return b.width }

// Bit reports whether bit i is set.
func (b Bits) Bit(i int) bool {
	if i < 0 || i >= b.width {
		panic(fmt.Errorf("bits: index %d out of range for width %d", i, b.width))
	}
	return b.value().Bit(i) == 1
}

// BigInt returns a copy of the unsigned value.
func (b Bits) BigInt() *big.Int {
	return new(big.Int).Set(b.value())
}

// Uint64 returns the value when it fits in 64 bits.
func (b Bits) Uint64() (uint64, bool) {
	v := b.value()
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}

// Bools returns the bits LSB first.
func (b Bits) Bools() []bool {
	out := make([]bool, b.width)
	v := b.value()
	for i := range out {
		out[i] = v.Bit(i) == 1
	}
	return out
}

// IsZero reports whether every bit is zero.
func (b Bits) IsZero() bool { return b.value().Sign() == 0 }

// Equal reports whether both width and value match.
func (b Bits) Equal(o Bits) bool {
	return b.width == o.width && b.value().Cmp(o.value()) == 0
}

// UEqual compares the unsigned values, ignoring width.
func UEqual(a, b Bits) bool {
	return a.value().Cmp(b.value()) == 0
}

// UCompare returns -1, 0 or 1 comparing the unsigned values.
func UCompare(a, b Bits) int {
	return a.value().Cmp(b.value())
}

// ZeroExtend widens b to width; width must not be smaller than b.Width().
func (b Bits) ZeroExtend(width int) Bits {
	if width < b.width {
		panic(fmt.Errorf("bits: cannot zero-extend width %d to %d", b.width, width))
	}
	return Bits{width: width, v: b.BigInt()}
}

// String renders the vector as a binary literal, MSB first.
func (b Bits) String() string {
	var sb strings.Builder
	sb.WriteString("0b")
	v := b.value()
	for i := b.width - 1; i >= 0; i-- {
		if v.Bit(i) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Hex renders the vector as a hexadecimal literal with its width.
func (b Bits) Hex() string {
	return fmt.Sprintf("bits[%d]:0x%s", b.width, b.value().Text(16))
}

// MaxValue returns 2^width - 1 as an integer.
func MaxValue(width int) *big.Int {
	checkWidth(width)
	return mask(width)
}

func (b Bits) value() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return b.v
}

func mask(width int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), widthShift(width))
	return m.Sub(m, big.NewInt(1))
}

func widthShift(width int) uint {
	w, err := safecast.Conv[uint](width)
	if err != nil {
		panic(fmt.Errorf("bits: invalid width %d: %w", width, err))
	}
	return w
}

func checkWidth(width int) {
	if width < 0 {
		panic(fmt.Errorf("bits: negative width %d", width))
	}
}
