// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import (
	"fmt"
	"path/filepath"

	"github.com/antimetal/server-status/pkg/proc"
)

// MetricType represents one independently enabled metric domain
type MetricType string

const (
	MetricTypeCPU       MetricType = "cpu"
	MetricTypeNetwork   MetricType = "network"
	MetricTypeMemory    MetricType = "memory"
	MetricTypeTCP       MetricType = "tcp"
	MetricTypeUDP       MetricType = "udp"
	MetricTypeConntrack MetricType = "conntrack"
)

// MetricTypes lists every domain in update order. The first failing domain in this
// order is the one reported by an aggregate update.
var MetricTypes = []MetricType{
	MetricTypeCPU,
	MetricTypeNetwork,
	MetricTypeMemory,
	MetricTypeTCP,
	MetricTypeUDP,
	MetricTypeConntrack,
}

// ParseMetricType returns the MetricType named s.
func ParseMetricType(s string) (MetricType, error) {
	for _, mt := range MetricTypes {
		if string(mt) == s {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown metric type %q", s)
}

// CPUCounters is one reading of the aggregate "cpu" line of /proc/stat.
// Values are cumulative USER_HZ ticks since boot.
type CPUCounters struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// LocalUse is time spent doing work inside this OS.
func (c CPUCounters) LocalUse() uint64 {
	sum := c.User
	for _, v := range []uint64{c.Nice, c.System, c.IRQ, c.SoftIRQ, c.Guest, c.GuestNice} {
		sum = proc.SaturatingAdd(sum, v)
	}
	return sum
}

// StolenUse is time the hypervisor spent running something else.
func (c CPUCounters) StolenUse() uint64 {
	return c.Steal
}

// Use is LocalUse plus StolenUse.
func (c CPUCounters) Use() uint64 {
	return proc.SaturatingAdd(c.LocalUse(), c.StolenUse())
}

// IdleTime is idle plus I/O wait.
func (c CPUCounters) IdleTime() uint64 {
	return proc.SaturatingAdd(c.Idle, c.IOWait)
}

// Total is Use plus IdleTime.
func (c CPUCounters) Total() uint64 {
	return proc.SaturatingAdd(c.Use(), c.IdleTime())
}

// NetCounters is the sum of /proc/net/dev counters over every non-loopback interface,
// captured at UnixMillis.
type NetCounters struct {
	UnixMillis uint64

	// Receive statistics
	RxBytes      uint64
	RxPackets    uint64
	RxErrors     uint64
	RxDropped    uint64
	RxFIFO       uint64
	RxFrame      uint64
	RxCompressed uint64
	RxMulticast  uint64
	// Transmit statistics
	TxBytes      uint64
	TxPackets    uint64
	TxErrors     uint64
	TxDropped    uint64
	TxFIFO       uint64
	TxCollisions uint64
	TxCarrier    uint64
	TxCompressed uint64
}

// Bytes is received plus transmitted bytes.
func (n NetCounters) Bytes() uint64 {
	return proc.SaturatingAdd(n.RxBytes, n.TxBytes)
}

// MemoryStats holds the /proc/meminfo values the status metrics need, in bytes.
// Unlike the other snapshots these are levels, not counters.
type MemoryStats struct {
	MemTotal     uint64
	MemFree      uint64
	MemAvailable uint64
	Buffers      uint64
	Cached       uint64
	SReclaimable uint64
	SwapTotal    uint64
	SwapFree     uint64
}

// Used is memory that cannot be reclaimed without swapping.
func (m MemoryStats) Used() uint64 {
	used := proc.SaturatingSub(m.MemTotal, m.MemFree)
	used = proc.SaturatingSub(used, m.Buffers)
	used = proc.SaturatingSub(used, m.Cached)
	return proc.SaturatingSub(used, m.SReclaimable)
}

// SwapUsed is swap total minus swap free.
func (m MemoryStats) SwapUsed() uint64 {
	return proc.SaturatingSub(m.SwapTotal, m.SwapFree)
}

// ConnectionStats is the number of records in a connection or session table.
type ConnectionStats struct {
	Count uint64
}

// CollectionConfig represents configuration for metric sampling
type CollectionConfig struct {
	EnabledCollectors map[MetricType]bool
	HostProcPath      string // Path to /proc (useful for containers)
	IncludeIPv6       bool   // Also count net/tcp6 and net/udp6
}

// DefaultCollectionConfig returns a default configuration
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		EnabledCollectors: map[MetricType]bool{
			MetricTypeCPU:       true,
			MetricTypeNetwork:   true,
			MetricTypeMemory:    true,
			MetricTypeTCP:       true,
			MetricTypeUDP:       true,
			MetricTypeConntrack: true,
		},
		HostProcPath: "/proc",
	}
}

// ApplyDefaults fills in zero values with defaults
func (c *CollectionConfig) ApplyDefaults() {
	defaults := DefaultCollectionConfig()

	if c.EnabledCollectors == nil {
		c.EnabledCollectors = defaults.EnabledCollectors
	}
	if c.HostProcPath == "" {
		c.HostProcPath = defaults.HostProcPath
	}
}

// IsEnabled reports whether the collector for metricType is switched on.
func (c CollectionConfig) IsEnabled(metricType MetricType) bool {
	return c.EnabledCollectors[metricType]
}

// ValidateOptions specifies validation requirements for CollectionConfig
type ValidateOptions struct {
	RequireHostProcPath bool
}

// Validate ensures that the proc path is absolute, that it is present when required and
// that only known metric types are enabled.
func (c *CollectionConfig) Validate(opt ValidateOptions) error {
	if opt.RequireHostProcPath && c.HostProcPath == "" {
		return fmt.Errorf("HostProcPath is required but not provided")
	}
	if c.HostProcPath != "" && !filepath.IsAbs(c.HostProcPath) {
		return fmt.Errorf("HostProcPath must be an absolute path, got: %q", c.HostProcPath)
	}
	for metricType := range c.EnabledCollectors {
		if _, err := ParseMetricType(string(metricType)); err != nil {
			return err
		}
	}
	return nil
}
