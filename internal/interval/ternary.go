package interval

import (
	"math/big"

	"bitfact/internal/ternary"
)

// FromTernary returns a set containing every value consistent with v.
//
// The maxIntervalBits most significant unknown bits are enumerated, giving at
// most 1<<maxIntervalBits ranges. Each remaining unknown bit is left free, so
// a range spans from the value with all free bits clear to the value with all
// free bits set. The result is exact whenever v has no more than
// maxIntervalBits unknown bits.
func FromTernary(v ternary.Vector, maxIntervalBits int) Set {
	width := len(v)
	if maxIntervalBits < 0 {
		maxIntervalBits = 0
	}
	var unknown []int // most significant first
	for i := width - 1; i >= 0; i-- {
		if v[i] == ternary.Unknown {
			unknown = append(unknown, i)
		}
	}
	enumerated := unknown[:min(len(unknown), maxIntervalBits)]
	freeMask := new(big.Int)
	for _, pos := range unknown[len(enumerated):] {
		freeMask.SetBit(freeMask, pos, 1)
	}
	base := ternary.KnownOnes(v).BigInt()

	ivals := make([]Interval, 0, 1<<len(enumerated))
	for combo := 0; combo < 1<<len(enumerated); combo++ {
		lo := new(big.Int).Set(base)
		for j, pos := range enumerated {
			if combo&(1<<j) != 0 {
				lo.SetBit(lo, pos, 1)
			}
		}
		hi := new(big.Int).Or(lo, freeMask)
		ivals = append(ivals, Interval{Lo: lo, Hi: hi})
	}
	return Of(width, ivals...)
}
