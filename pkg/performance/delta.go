// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import (
	"github.com/antimetal/server-status/pkg/proc"
)

// SourceState holds the two most recent snapshots of one metric domain.
//
// The zero value holds no data. Each Replace or Invalidate moves the current snapshot
// into the old slot, so old is always the reading taken immediately before the current
// one.
type SourceState[T any] struct {
	old    T
	cur    T
	hasOld bool
	hasCur bool
}

// Replace records a freshly sampled snapshot.
func (s *SourceState[T]) Replace(next T) {
	s.old, s.hasOld = s.cur, s.hasCur
	s.cur, s.hasCur = next, true
}

// Invalidate records a failed sample: the previous snapshot still ages into old but
// there is no new one until the next successful sample.
func (s *SourceState[T]) Invalidate() {
	var zero T
	s.old, s.hasOld = s.cur, s.hasCur
	s.cur, s.hasCur = zero, false
}

// Latest returns the most recent snapshot.
func (s *SourceState[T]) Latest() (T, bool) {
	return s.cur, s.hasCur
}

// Pair returns both snapshots, and false unless both exist.
func (s *SourceState[T]) Pair() (old, cur T, ok bool) {
	return s.old, s.cur, s.hasOld && s.hasCur
}

// CalculateUint64Delta calculates delta for uint64 counters with reset detection
func CalculateUint64Delta(current, previous uint64) (delta uint64, resetDetected bool) {
	// Counters only go backwards on reboot or subsystem reset. A full 64-bit wrap
	// looks the same and is treated the same way.
	if current < previous {
		return 0, true
	}
	return current - previous, false
}

// Ratio compares the old and new snapshots of state and returns
// Δnumerator/Δdenominator as a sanitized fraction.
//
// The result is absent until two snapshots exist, and whenever the denominator did not
// move.
func Ratio[T any](state *SourceState[T], numerator, denominator func(T) uint64) (float32, bool) {
	old, cur, ok := state.Pair()
	if !ok {
		return 0, false
	}
	num, _ := CalculateUint64Delta(numerator(cur), numerator(old))
	den, _ := CalculateUint64Delta(denominator(cur), denominator(old))
	return proc.SanitizedRatio(num, den)
}

// Rate returns the per-second rate of counter between the old and new snapshots of
// state, using millis as each snapshot's capture time.
//
// The result is absent until two snapshots exist and when no time elapsed between them.
// It is a rate, not a fraction, so it is not clamped.
func Rate[T any](state *SourceState[T], counter, millis func(T) uint64) (uint64, bool) {
	old, cur, ok := state.Pair()
	if !ok {
		return 0, false
	}
	delta, _ := CalculateUint64Delta(counter(cur), counter(old))
	elapsed, _ := CalculateUint64Delta(millis(cur), millis(old))
	if elapsed == 0 {
		return 0, false
	}
	return proc.SaturatingMul(delta, 1000) / elapsed, true
}
