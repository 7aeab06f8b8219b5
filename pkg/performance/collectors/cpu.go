// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"fmt"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/proc"
)

// Compile-time interface check
var _ performance.Sampler[performance.CPUCounters] = (*CPUCollector)(nil)

// CPUCollector samples the aggregate CPU line of /proc/stat
//
// The first line of /proc/stat is the sum over all CPUs:
//
//	cpu  user nice system idle iowait irq softirq steal guest guest_nice
//
// Values are in USER_HZ ticks. user, nice, system and idle have existed since the
// earliest kernels and are required. The other six were added over time (iowait in
// 2.5.41, steal in 2.6.11, guest_nice in 2.6.33): a garbled value reads as 0, but a
// missing column still fails the sample.
//
// Reference: https://www.kernel.org/doc/html/latest/filesystems/proc.html#proc-stat
type CPUCollector struct {
	performance.BaseCollector
	statPath string
}

func NewCPUCollector(logger logr.Logger, config performance.CollectionConfig) (*CPUCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	return &CPUCollector{
		BaseCollector: performance.NewBaseCollector(
			performance.MetricTypeCPU,
			"CPU Statistics Collector",
			logger,
			config,
		),
		statPath: filepath.Join(config.HostProcPath, "stat"),
	}, nil
}

func (c *CPUCollector) Sources() []string {
	return []string{c.statPath}
}

// Sample reads the first line of /proc/stat
func (c *CPUCollector) Sample() (performance.CPUCounters, error) {
	var counters performance.CPUCounters
	found := false

	err := proc.ScanLines(c.statPath, func(_ int, line string) error {
		found = true
		fields := proc.NewFields(line)
		if label, ok := fields.Next(); !ok || label != "cpu" {
			return fmt.Errorf("%s: first line does not start with \"cpu\": %w", c.statPath, proc.ErrMalformedSource)
		}

		required := []struct {
			name string
			dst  *uint64
		}{
			{"user", &counters.User},
			{"nice", &counters.Nice},
			{"system", &counters.System},
			{"idle", &counters.Idle},
		}
		for _, f := range required {
			val, err := fields.RequiredUint()
			if err != nil {
				return fmt.Errorf("%s: %w: %s: %w", c.statPath, proc.ErrMalformedSource, f.name, err)
			}
			*f.dst = val
		}

		optional := []struct {
			name string
			dst  *uint64
		}{
			{"iowait", &counters.IOWait},
			{"irq", &counters.IRQ},
			{"softirq", &counters.SoftIRQ},
			{"steal", &counters.Steal},
			{"guest", &counters.Guest},
			{"guest_nice", &counters.GuestNice},
		}
		for _, f := range optional {
			val, err := fields.OptionalUint()
			if err != nil {
				return fmt.Errorf("%s: %s: %w", c.statPath, f.name, err)
			}
			*f.dst = val
		}
		return proc.SkipRest
	})
	if err != nil {
		return performance.CPUCounters{}, err
	}
	if !found {
		return performance.CPUCounters{}, fmt.Errorf("%s is empty: %w", c.statPath, proc.ErrMalformedSource)
	}

	c.Logger().V(1).Info("Collected CPU statistics", "total", counters.Total(), "idle", counters.IdleTime())
	return counters, nil
}
