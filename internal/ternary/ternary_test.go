package ternary

import (
	"testing"

	"bitfact/internal/bits"
)

func TestParseAndString(t *testing.T) {
	v := MustParse("0b1X_10")
	want := Vector{KnownZero, KnownOne, Unknown, KnownOne}
	if !Equal(v, want) {
		t.Fatalf("Parse = %v, want %v", v, want)
	}
	if got := v.String(); got != "0b1X10" {
		t.Fatalf("String = %q", got)
	}
	if got := (Vector{}).String(); got != "0b" {
		t.Fatalf("zero width String = %q", got)
	}
	if _, err := Parse("0b12"); err == nil {
		t.Fatalf("expected error for invalid digit")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		in                  string
		full, zeros, allOne bool
	}{
		{"", true, true, true},
		{"000", true, true, false},
		{"111", true, false, true},
		{"101", true, false, false},
		{"1X1", false, false, false},
		{"XXX", false, false, false},
	}
	for _, tt := range tests {
		v := MustParse(tt.in)
		if IsFullyKnown(v) != tt.full || IsKnownZero(v) != tt.zeros || IsKnownOne(v) != tt.allOne {
			t.Fatalf("%q: full=%v zero=%v one=%v", tt.in, IsFullyKnown(v), IsKnownZero(v), IsKnownOne(v))
		}
	}
}

func TestKnownBitsConversion(t *testing.T) {
	b := bits.FromUint64(0b1011, 4)
	v := FromKnownBits(b)
	if v.String() != "0b1011" {
		t.Fatalf("FromKnownBits = %s", v)
	}
	if !ToKnownBits(v).Equal(b) {
		t.Fatalf("ToKnownBits mismatch")
	}
	if !Contains(MustParse("1X11"), b) || Contains(MustParse("0X11"), b) {
		t.Fatalf("Contains mismatch")
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("ToKnownBits on unknown bits should panic")
		}
	}()
	ToKnownBits(MustParse("1X"))
}

func TestBitwiseOps(t *testing.T) {
	a := MustParse("01X1X0")
	b := MustParse("0011XX")
	if got := And(a, b).String(); got != "0b00X1X0" {
		t.Fatalf("And = %s", got)
	}
	if got := Or(a, b).String(); got != "0b0111XX" {
		t.Fatalf("Or = %s", got)
	}
	if got := Xor(a, b).String(); got != "0b01X0XX" {
		t.Fatalf("Xor = %s", got)
	}
	if got := Not(a).String(); got != "0b10X0X1" {
		t.Fatalf("Not = %s", got)
	}
	if got := Meet(a, b).String(); got != "0b0XX1XX" {
		t.Fatalf("Meet = %s", got)
	}
}
