// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package serverstatus

import (
	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/proc"
)

// Every accessor returns false when its domain is disabled or has too few samples.
// Ratios need two CPU samples, rates two network samples, and levels and counts one
// sample of their domain.

// CPUUsage is the fraction of CPU time spent busy, stolen time included.
func (s *Status) CPUUsage() (float32, bool) {
	return s.cpuRatio(performance.CPUCounters.Use)
}

// CPULocalUsage is the fraction of CPU time spent busy inside this OS.
func (s *Status) CPULocalUsage() (float32, bool) {
	return s.cpuRatio(performance.CPUCounters.LocalUse)
}

// CPUStolenUsage is the fraction of CPU time taken by the hypervisor.
func (s *Status) CPUStolenUsage() (float32, bool) {
	return s.cpuRatio(performance.CPUCounters.StolenUse)
}

// CPUIdle is the fraction of CPU time spent idle or waiting on I/O.
func (s *Status) CPUIdle() (float32, bool) {
	return s.cpuRatio(performance.CPUCounters.IdleTime)
}

func (s *Status) cpuRatio(numerator func(performance.CPUCounters) uint64) (float32, bool) {
	if s.cpu == nil {
		return 0, false
	}
	return performance.Ratio(&s.cpu.state, numerator, performance.CPUCounters.Total)
}

// NetBandwidth is received plus transmitted bytes per second.
func (s *Status) NetBandwidth() (uint64, bool) {
	return s.netRate(performance.NetCounters.Bytes)
}

// NetReceptionBandwidth is received bytes per second.
func (s *Status) NetReceptionBandwidth() (uint64, bool) {
	return s.netRate(func(c performance.NetCounters) uint64 { return c.RxBytes })
}

// NetTransmissionBandwidth is transmitted bytes per second.
func (s *Status) NetTransmissionBandwidth() (uint64, bool) {
	return s.netRate(func(c performance.NetCounters) uint64 { return c.TxBytes })
}

func (s *Status) netRate(counter func(performance.NetCounters) uint64) (uint64, bool) {
	if s.net == nil {
		return 0, false
	}
	return performance.Rate(&s.net.state, counter, func(c performance.NetCounters) uint64 { return c.UnixMillis })
}

// RAMUsage is the fraction of memory in use. Reclaimable kernel caches count as free.
func (s *Status) RAMUsage() (float32, bool) {
	if s.mem == nil {
		return 0, false
	}
	stats, ok := s.mem.state.Latest()
	if !ok {
		return 0, false
	}
	return proc.SanitizedRatio(stats.Used(), stats.MemTotal)
}

// RAMSwapUsage is the fraction of swap in use. It is absent on hosts without swap.
func (s *Status) RAMSwapUsage() (float32, bool) {
	if s.mem == nil {
		return 0, false
	}
	stats, ok := s.mem.state.Latest()
	if !ok {
		return 0, false
	}
	return proc.SanitizedRatio(stats.SwapUsed(), stats.SwapTotal)
}

func (s *Status) TCPConnections() (uint64, bool) {
	return latestCount(s.tcp)
}

func (s *Status) UDPSockets() (uint64, bool) {
	return latestCount(s.udp)
}

func (s *Status) ConntrackSessions() (uint64, bool) {
	return latestCount(s.conntrack)
}

func latestCount(d *domain[performance.ConnectionStats]) (uint64, bool) {
	if d == nil {
		return 0, false
	}
	stats, ok := d.state.Latest()
	return stats.Count, ok
}
