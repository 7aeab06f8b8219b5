// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/proc"
)

// Compile-time interface check
var _ performance.Sampler[performance.MemoryStats] = (*MemoryCollector)(nil)

// MemoryCollector samples memory levels from /proc/meminfo
//
// Only the eight fields needed for memory and swap utilization are read. Values are
// converted from kilobytes (as reported by the kernel) to bytes.
//
// Reference: https://www.kernel.org/doc/html/latest/filesystems/proc.html#meminfo
type MemoryCollector struct {
	performance.BaseCollector
	meminfoPath string
}

func NewMemoryCollector(logger logr.Logger, config performance.CollectionConfig) (*MemoryCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	return &MemoryCollector{
		BaseCollector: performance.NewBaseCollector(
			performance.MetricTypeMemory,
			"System Memory Collector",
			logger,
			config,
		),
		meminfoPath: filepath.Join(config.HostProcPath, "meminfo"),
	}, nil
}

func (c *MemoryCollector) Sources() []string {
	return []string{c.meminfoPath}
}

// Sample reads /proc/meminfo
//
// /proc/meminfo format:
//
//	FieldName:       value kB
//
// Unrecognized labels are skipped without looking at their value, so fields such as
// HugePages_Total (a page count with no unit) never cause a failure. A recognized field
// must carry either no unit or kB in any case.
func (c *MemoryCollector) Sample() (performance.MemoryStats, error) {
	var stats performance.MemoryStats

	// Map field names from /proc/meminfo to struct fields
	fieldMap := map[string]*uint64{
		"MemTotal":     &stats.MemTotal,
		"MemFree":      &stats.MemFree,
		"MemAvailable": &stats.MemAvailable,
		"Buffers":      &stats.Buffers,
		"Cached":       &stats.Cached,
		"SReclaimable": &stats.SReclaimable,
		"SwapTotal":    &stats.SwapTotal,
		"SwapFree":     &stats.SwapFree,
	}

	err := proc.ScanLines(c.meminfoPath, func(lineNum int, line string) error {
		fields := proc.NewFields(line)
		label, ok := fields.Next()
		if !ok {
			return nil
		}
		label = strings.TrimSuffix(label, ":")
		dst, known := fieldMap[label]
		if !known {
			return nil
		}

		value, err := fields.RequiredUint()
		if err != nil {
			return fmt.Errorf("%s: %s: %w", c.meminfoPath, label, err)
		}
		if unit, ok := fields.Next(); ok && !strings.EqualFold(unit, "kb") {
			return fmt.Errorf("%s: %s: unsupported unit %q: %w", c.meminfoPath, label, unit, proc.ErrMalformedSource)
		}

		*dst = proc.SaturatingMul(value, 1024)
		return nil
	})
	if err != nil {
		return performance.MemoryStats{}, err
	}

	// A zero total means the file was empty or truncated, not a machine without memory
	if stats.MemTotal == 0 {
		return performance.MemoryStats{}, fmt.Errorf("%s reports no memory: %w", c.meminfoPath, proc.ErrMalformedSource)
	}

	c.Logger().V(1).Info("Collected memory statistics", "total", stats.MemTotal, "used", stats.Used())
	return stats, nil
}
