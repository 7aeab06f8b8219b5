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
	"time"

	"github.com/go-logr/logr"

	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/proc"
)

// NetworkCollector samples interface counters from /proc/net/dev
//
// The counters of every interface except loopback are summed into one snapshot, and the
// wall-clock capture time is recorded so two snapshots can be turned into a rate.
//
// Reference: https://www.kernel.org/doc/html/latest/networking/statistics.html
type NetworkCollector struct {
	performance.BaseCollector
	procNetDevPath string
	now            func() time.Time
}

// Compile-time interface check
var _ performance.Sampler[performance.NetCounters] = (*NetworkCollector)(nil)

// NetworkOption customizes a NetworkCollector
type NetworkOption func(*NetworkCollector)

// WithClock replaces the clock used to timestamp samples.
func WithClock(now func() time.Time) NetworkOption {
	return func(c *NetworkCollector) {
		if now != nil {
			c.now = now
		}
	}
}

func NewNetworkCollector(logger logr.Logger, config performance.CollectionConfig, opts ...NetworkOption) (*NetworkCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	c := &NetworkCollector{
		BaseCollector: performance.NewBaseCollector(
			performance.MetricTypeNetwork,
			"Network Statistics Collector",
			logger,
			config,
		),
		procNetDevPath: filepath.Join(config.HostProcPath, "net", "dev"),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *NetworkCollector) Sources() []string {
	return []string{c.procNetDevPath}
}

// Sample reads and sums /proc/net/dev
//
// /proc/net/dev format:
//
//	Inter-|   Receive                                                |  Transmit
//	 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
//	    lo: 1234567   12345    0    0    0     0          0         0 1234567   12345    0    0    0     0       0          0
//	  eth0: 9876543   98765    0    0    0     0          0         0 9876543   98765    0    0    0     0       0          0
//
// The first two lines are headers. The kernel drops the space after the colon once
// the receive byte count gets wide, so lines are split at the colon rather than on
// whitespace. Every counter is required; one bad value fails the whole sample.
func (c *NetworkCollector) Sample() (performance.NetCounters, error) {
	counters := performance.NetCounters{
		UnixMillis: uint64(c.now().UnixMilli()),
	}
	fields := []struct {
		name string
		dst  *uint64
	}{
		{"rx_bytes", &counters.RxBytes},
		{"rx_packets", &counters.RxPackets},
		{"rx_errors", &counters.RxErrors},
		{"rx_dropped", &counters.RxDropped},
		{"rx_fifo_errors", &counters.RxFIFO},
		{"rx_frame_errors", &counters.RxFrame},
		{"rx_compressed", &counters.RxCompressed},
		{"rx_multicast", &counters.RxMulticast},
		{"tx_bytes", &counters.TxBytes},
		{"tx_packets", &counters.TxPackets},
		{"tx_errors", &counters.TxErrors},
		{"tx_dropped", &counters.TxDropped},
		{"tx_fifo_errors", &counters.TxFIFO},
		{"tx_collisions", &counters.TxCollisions},
		{"tx_carrier_errors", &counters.TxCarrier},
		{"tx_compressed", &counters.TxCompressed},
	}

	interfaces := 0
	err := proc.ScanLines(c.procNetDevPath, func(lineNum int, line string) error {
		// Skip the two header lines
		if lineNum <= 2 || strings.TrimSpace(line) == "" {
			return nil
		}

		ifaceName, values, ok := strings.Cut(line, ":")
		if !ok {
			return fmt.Errorf("%s line %d: missing interface separator: %w",
				c.procNetDevPath, lineNum, proc.ErrMalformedSource)
		}
		ifaceName = strings.TrimSpace(ifaceName)
		if ifaceName == "lo" {
			return nil
		}

		tokens := proc.NewFields(values)
		for _, f := range fields {
			val, err := tokens.RequiredUint()
			if err != nil {
				return fmt.Errorf("%s: interface %s: %s: %w", c.procNetDevPath, ifaceName, f.name, err)
			}
			*f.dst = proc.SaturatingAdd(*f.dst, val)
		}
		interfaces++
		return nil
	})
	if err != nil {
		return performance.NetCounters{}, err
	}

	c.Logger().V(1).Info("Collected network statistics",
		"interfaces", interfaces, "rxBytes", counters.RxBytes, "txBytes", counters.TxBytes)
	return counters, nil
}
