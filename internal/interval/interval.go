// Package interval implements sets of closed unsigned integer ranges over a
// fixed bit width.
package interval

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"bitfact/internal/bits"
)

// Interval is the closed range [Lo, Hi].
type Interval struct {
	Lo, Hi *big.Int
}

// New returns [lo, hi]; lo must not exceed hi.
func New(lo, hi *big.Int) Interval {
	if lo.Cmp(hi) > 0 {
		panic(fmt.Errorf("interval: inverted bounds [%s, %s]", lo, hi))
	}
	return Interval{Lo: new(big.Int).Set(lo), Hi: new(big.Int).Set(hi)}
}

// Point returns [v, v].
func Point(v *big.Int) Interval {
	return New(v, v)
}

// Contains reports whether v lies in the interval.
func (i Interval) Contains(v *big.Int) bool {
	return i.Lo.Cmp(v) <= 0 && v.Cmp(i.Hi) <= 0
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", i.Lo, i.Hi)
}

// Set is a normalized union of intervals: sorted, with no two members
// overlapping or adjacent.
type Set struct {
	width int
	ivals []Interval
}

// Maximal returns the set covering every value representable in width bits.
func Maximal(width int) Set {
	return Set{width: width, ivals: []Interval{New(new(big.Int), bits.MaxValue(width))}}
}

// Precise returns the set holding exactly b.
func Precise(b bits.Bits) Set {
	return Set{width: b.Width(), ivals: []Interval{Point(b.BigInt())}}
}

// Of builds a normalized set from arbitrary intervals. Every bound must be
// representable in width bits.
func Of(width int, ivals ...Interval) Set {
	limit := bits.MaxValue(width)
	sorted := make([]Interval, 0, len(ivals))
	for _, iv := range ivals {
		if iv.Lo.Sign() < 0 || iv.Hi.Cmp(limit) > 0 {
			panic(fmt.Errorf("interval: %s does not fit in %d bits", iv, width))
		}
		sorted = append(sorted, iv)
	}
	slices.SortFunc(sorted, func(a, b Interval) int { return a.Lo.Cmp(b.Lo) })

	out := make([]Interval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(out); n > 0 {
			last := &out[n-1]
			next := new(big.Int).Add(last.Hi, big.NewInt(1))
			if iv.Lo.Cmp(next) <= 0 {
				if iv.Hi.Cmp(last.Hi) > 0 {
					last.Hi = new(big.Int).Set(iv.Hi)
				}
				continue
			}
		}
		out = append(out, New(iv.Lo, iv.Hi))
	}
	return Set{width: width, ivals: out}
}

func (s Set) Width() int { return s.width }

// Intervals returns the members in ascending order.
func (s Set) Intervals() []Interval { return s.ivals }

func (s Set) NumberOfIntervals() int { return len(s.ivals) }

func (s Set) IsEmpty() bool { return len(s.ivals) == 0 }

// IsMaximal reports whether s covers every value of its width.
func (s Set) IsMaximal() bool {
	return len(s.ivals) == 1 && s.ivals[0].Lo.Sign() == 0 && s.ivals[0].Hi.Cmp(bits.MaxValue(s.width)) == 0
}

// Contains reports whether v is a member.
func (s Set) Contains(v *big.Int) bool {
	i, found := slices.BinarySearchFunc(s.ivals, v, func(iv Interval, t *big.Int) int {
		switch {
		case iv.Hi.Cmp(t) < 0:
			return -1
		case iv.Lo.Cmp(t) > 0:
			return 1
		default:
			return 0
		}
	})
	return found && s.ivals[i].Contains(v)
}

// ContainsBits reports whether the unsigned value of b is a member.
func (s Set) ContainsBits(b bits.Bits) bool {
	return s.Contains(b.BigInt())
}

// ConvexHull returns the smallest interval covering s.
func (s Set) ConvexHull() (Interval, bool) {
	if s.IsEmpty() {
		return Interval{}, false
	}
	return New(s.ivals[0].Lo, s.ivals[len(s.ivals)-1].Hi), true
}

// Size returns the number of members.
func (s Set) Size() *big.Int {
	n := new(big.Int)
	for _, iv := range s.ivals {
		n.Add(n, new(big.Int).Sub(iv.Hi, iv.Lo))
		n.Add(n, big.NewInt(1))
	}
	return n
}

// Equal compares width and members.
func (s Set) Equal(o Set) bool {
	return s.width == o.width && slices.EqualFunc(s.ivals, o.ivals, func(a, b Interval) bool {
		return a.Lo.Cmp(b.Lo) == 0 && a.Hi.Cmp(b.Hi) == 0
	})
}

func (s Set) String() string {
	parts := make([]string, len(s.ivals))
	for i, iv := range s.ivals {
		parts[i] = iv.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
