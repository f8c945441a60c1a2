package ternary

import "fmt"

// Meet keeps the bits on which a and b agree and forgets the rest. The result
// is consistent with every value consistent with either input.
func Meet(a, b Vector) Vector {
	checkSameWidth(a, b)
	out := make(Vector, len(a))
	for i := range a {
		if a[i] == b[i] {
			out[i] = a[i]
		}
	}
	return out
}

// Not inverts every known bit.
func Not(v Vector) Vector {
	out := make(Vector, len(v))
	for i, b := range v {
		switch b {
		case KnownZero:
			out[i] = KnownOne
		case KnownOne:
			out[i] = KnownZero
		}
	}
	return out
}

// And combines a and b bitwise.
func And(a, b Vector) Vector {
	checkSameWidth(a, b)
	out := make(Vector, len(a))
	for i := range a {
		switch {
		case a[i] == KnownZero || b[i] == KnownZero:
			out[i] = KnownZero
		case a[i] == KnownOne && b[i] == KnownOne:
			out[i] = KnownOne
		}
	}
	return out
}

// Or combines a and b bitwise.
func Or(a, b Vector) Vector {
	checkSameWidth(a, b)
	out := make(Vector, len(a))
	for i := range a {
		switch {
		case a[i] == KnownOne || b[i] == KnownOne:
			out[i] = KnownOne
		case a[i] == KnownZero && b[i] == KnownZero:
			out[i] = KnownZero
		}
	}
	return out
}

// Xor combines a and b bitwise.
func Xor(a, b Vector) Vector {
	checkSameWidth(a, b)
	out := make(Vector, len(a))
	for i := range a {
		if a[i] != Unknown && b[i] != Unknown {
			out[i] = FromBool(a[i] != b[i])
		}
	}
	return out
}

func checkSameWidth(a, b Vector) {
	if len(a) != len(b) {
		panic(fmt.Errorf("ternary: width mismatch %d vs %d", len(a), len(b)))
	}
}
