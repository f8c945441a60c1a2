package value

import (
	"testing"

	"bitfact/internal/bits"
)

func TestString(t *testing.T) {
	v := Tuple(UBits(5, 4), Array(UBits(1, 1), UBits(0, 1)), Token())
	if got, want := v.String(), "(bits[4]:0x5, [bits[1]:0x1, bits[1]:0x0], token)"; got != want {
		t.Fatalf("String = %q, want %q", got, want)
	}
	if got := (Value{}).String(); got != "<invalid>" {
		t.Fatalf("zero Value String = %q", got)
	}
}

func TestEqual(t *testing.T) {
	a := Tuple(UBits(1, 2), Token())
	if !a.Equal(Tuple(UBits(1, 2), Token())) {
		t.Fatalf("identical tuples differ")
	}
	if a.Equal(Tuple(UBits(1, 3), Token())) {
		t.Fatalf("width must be part of equality")
	}
	if Tuple(UBits(1, 1)).Equal(Array(UBits(1, 1))) {
		t.Fatalf("tuple equals array")
	}
	if Array(UBits(1, 1)).Equal(Array(UBits(1, 1), UBits(1, 1))) {
		t.Fatalf("arrays of different length are equal")
	}
}

func TestConstructorsCopy(t *testing.T) {
	elems := []Value{UBits(1, 1)}
	v := Array(elems...)
	elems[0] = UBits(0, 1)
	if !v.Elements()[0].Bits().Equal(bits.FromUint64(1, 1)) {
		t.Fatalf("Array aliases its argument slice")
	}
}

func TestBitsPanicsOnAggregate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Tuple().Bits()
}
