// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceState(t *testing.T) {
	t.Run("zero value has no data", func(t *testing.T) {
		var s SourceState[int]

		_, ok := s.Latest()
		assert.False(t, ok)
		_, _, ok = s.Pair()
		assert.False(t, ok)
	})

	t.Run("first replace fills only the current slot", func(t *testing.T) {
		var s SourceState[int]
		s.Replace(1)

		latest, ok := s.Latest()
		require.True(t, ok)
		assert.Equal(t, 1, latest)
		_, _, ok = s.Pair()
		assert.False(t, ok)
	})

	t.Run("second replace ages the first into old", func(t *testing.T) {
		var s SourceState[int]
		s.Replace(1)
		s.Replace(2)

		old, cur, ok := s.Pair()
		require.True(t, ok)
		assert.Equal(t, 1, old)
		assert.Equal(t, 2, cur)

		s.Replace(3)
		old, cur, ok = s.Pair()
		require.True(t, ok)
		assert.Equal(t, 2, old)
		assert.Equal(t, 3, cur)
	})

	t.Run("invalidate clears the current slot", func(t *testing.T) {
		var s SourceState[int]
		s.Replace(1)
		s.Replace(2)
		s.Invalidate()

		_, ok := s.Latest()
		assert.False(t, ok)
		_, _, ok = s.Pair()
		assert.False(t, ok)

		// One success after a failure is not enough for a delta
		s.Replace(3)
		_, _, ok = s.Pair()
		assert.False(t, ok)

		s.Replace(4)
		old, cur, ok := s.Pair()
		require.True(t, ok)
		assert.Equal(t, 3, old)
		assert.Equal(t, 4, cur)
	})
}

func TestCalculateUint64Delta(t *testing.T) {
	t.Run("basic delta calculation", func(t *testing.T) {
		delta, reset := CalculateUint64Delta(100, 50)

		assert.Equal(t, uint64(50), delta)
		assert.False(t, reset)
	})

	t.Run("counter reset detection", func(t *testing.T) {
		// Current < previous indicates reset (simple case)
		delta, reset := CalculateUint64Delta(10, 100)

		assert.Equal(t, uint64(0), delta)
		assert.True(t, reset)

		// Large previous value, small current value = still a reset
		// (no special rollover handling)
		delta2, reset2 := CalculateUint64Delta(5, ^uint64(0)-10)

		assert.Equal(t, uint64(0), delta2)
		assert.True(t, reset2)
	})
}

func cpuState(old, cur CPUCounters) *SourceState[CPUCounters] {
	s := &SourceState[CPUCounters]{}
	s.Replace(old)
	s.Replace(cur)
	return s
}

func TestRatio(t *testing.T) {
	t.Run("absent before two samples", func(t *testing.T) {
		s := &SourceState[CPUCounters]{}
		_, ok := Ratio(s, CPUCounters.Use, CPUCounters.Total)
		assert.False(t, ok)

		s.Replace(CPUCounters{User: 100, Idle: 100})
		_, ok = Ratio(s, CPUCounters.Use, CPUCounters.Total)
		assert.False(t, ok)
	})

	t.Run("fraction of the interval", func(t *testing.T) {
		s := cpuState(
			CPUCounters{User: 100, System: 50, Idle: 1000, Steal: 10},
			CPUCounters{User: 130, System: 60, Idle: 1050, Steal: 20},
		)

		usage, ok := Ratio(s, CPUCounters.Use, CPUCounters.Total)
		require.True(t, ok)
		// use: 30+10+10 = 50, total: 50+50 = 100
		assert.InDelta(t, 0.5, usage, 1e-6)

		local, ok := Ratio(s, CPUCounters.LocalUse, CPUCounters.Total)
		require.True(t, ok)
		assert.InDelta(t, 0.4, local, 1e-6)

		stolen, ok := Ratio(s, CPUCounters.StolenUse, CPUCounters.Total)
		require.True(t, ok)
		assert.InDelta(t, 0.1, stolen, 1e-6)
	})

	t.Run("no elapsed ticks", func(t *testing.T) {
		same := CPUCounters{User: 10, Idle: 10}
		_, ok := Ratio(cpuState(same, same), CPUCounters.Use, CPUCounters.Total)
		assert.False(t, ok)
	})

	t.Run("counter reset clamps to zero", func(t *testing.T) {
		s := cpuState(
			CPUCounters{User: 1000, Idle: 1000},
			CPUCounters{User: 10, Idle: 2000},
		)
		usage, ok := Ratio(s, CPUCounters.Use, CPUCounters.Total)
		require.True(t, ok)
		assert.Equal(t, float32(0), usage)
	})
}

func TestRate(t *testing.T) {
	netState := func(old, cur NetCounters) *SourceState[NetCounters] {
		s := &SourceState[NetCounters]{}
		s.Replace(old)
		s.Replace(cur)
		return s
	}
	millis := func(n NetCounters) uint64 { return n.UnixMillis }
	rx := func(n NetCounters) uint64 { return n.RxBytes }

	t.Run("bytes per second", func(t *testing.T) {
		s := netState(
			NetCounters{UnixMillis: 1_000, RxBytes: 5_000},
			NetCounters{UnixMillis: 1_500, RxBytes: 10_000},
		)
		rate, ok := Rate(s, rx, millis)
		require.True(t, ok)
		assert.Equal(t, uint64(10_000), rate)
	})

	t.Run("absent with one sample", func(t *testing.T) {
		s := &SourceState[NetCounters]{}
		s.Replace(NetCounters{UnixMillis: 1_000, RxBytes: 5_000})
		_, ok := Rate(s, rx, millis)
		assert.False(t, ok)
	})

	t.Run("absent when no time elapsed", func(t *testing.T) {
		s := netState(
			NetCounters{UnixMillis: 1_000, RxBytes: 5_000},
			NetCounters{UnixMillis: 1_000, RxBytes: 6_000},
		)
		_, ok := Rate(s, rx, millis)
		assert.False(t, ok)
	})

	t.Run("clock going backwards counts as no elapsed time", func(t *testing.T) {
		s := netState(
			NetCounters{UnixMillis: 2_000, RxBytes: 5_000},
			NetCounters{UnixMillis: 1_000, RxBytes: 6_000},
		)
		_, ok := Rate(s, rx, millis)
		assert.False(t, ok)
	})

	t.Run("huge delta saturates instead of wrapping", func(t *testing.T) {
		s := netState(
			NetCounters{UnixMillis: 0, RxBytes: 0},
			NetCounters{UnixMillis: 1, RxBytes: math.MaxUint64},
		)
		rate, ok := Rate(s, rx, millis)
		require.True(t, ok)
		assert.Equal(t, uint64(math.MaxUint64), rate)
	})
}

func TestDeltaProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	genTicks := gen.UInt64Range(0, 1<<40)

	properties.Property("cpu usage and idle fractions sum to one", prop.ForAll(
		func(user, system, idle, iowait, steal uint64) bool {
			s := cpuState(
				CPUCounters{},
				CPUCounters{User: user, System: system, Idle: idle, IOWait: iowait, Steal: steal},
			)
			usage, ok1 := Ratio(s, CPUCounters.Use, CPUCounters.Total)
			idleFrac, ok2 := Ratio(s, CPUCounters.IdleTime, CPUCounters.Total)
			if !ok1 || !ok2 {
				return user+system+idle+iowait+steal == 0
			}
			return math.Abs(float64(usage)+float64(idleFrac)-1) < 1e-5
		},
		genTicks, genTicks, genTicks, genTicks, genTicks,
	))

	properties.Property("total bandwidth equals rx plus tx within rounding", prop.ForAll(
		func(rx, tx, elapsed uint64) bool {
			if elapsed == 0 {
				elapsed = 1
			}
			s := &SourceState[NetCounters]{}
			s.Replace(NetCounters{})
			s.Replace(NetCounters{UnixMillis: elapsed, RxBytes: rx, TxBytes: tx})

			millis := func(n NetCounters) uint64 { return n.UnixMillis }
			total, _ := Rate(s, NetCounters.Bytes, millis)
			rxRate, _ := Rate(s, func(n NetCounters) uint64 { return n.RxBytes }, millis)
			txRate, _ := Rate(s, func(n NetCounters) uint64 { return n.TxBytes }, millis)

			sum := rxRate + txRate
			return total >= sum && total-sum <= 1
		},
		gen.UInt64Range(0, 1<<40), gen.UInt64Range(0, 1<<40), gen.UInt64Range(0, 1<<20),
	))

	properties.TestingRun(t)
}
