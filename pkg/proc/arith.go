// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package proc

import (
	"math"
	"math/bits"
)

// SaturatingAdd returns a+b, or math.MaxUint64 if the sum overflows.
func SaturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// SaturatingSub returns a-b, or 0 if b > a.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul returns a*b, or math.MaxUint64 if the product overflows.
func SaturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// SanitizedRatio returns numerator/denominator clamped to [0, 1].
//
// The result is absent when the denominator is zero or the quotient is not finite.
// Counters read at slightly different instants can push a ratio past 1.
func SanitizedRatio(numerator, denominator uint64) (float32, bool) {
	if denominator == 0 {
		return 0, false
	}
	ratio := float64(numerator) / float64(denominator)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, false
	}
	return float32(math.Min(math.Max(ratio, 0), 1)), true
}
