// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/proc"
)

// Compile-time interface checks
var (
	_ performance.Sampler[performance.ConnectionStats] = (*TCPCollector)(nil)
	_ performance.Sampler[performance.ConnectionStats] = (*UDPCollector)(nil)
	_ performance.Sampler[performance.ConnectionStats] = (*ConntrackCollector)(nil)
)

// connectionTable is one file of a socket table. A table that may legitimately not
// exist (tcp6 on a kernel built without IPv6) is optional and counts as empty.
type connectionTable struct {
	path     string
	optional bool
}

// socketTableCollector counts socket records in /proc/net/{tcp,udp}[6]
//
// Socket table format:
//
//	  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode
//	   0: 0100007F:0CEA 00000000:0000 0A 00000000:00000000 00:00000000 00000000     0        0 12345
//
// Every record carries a colon (the slot number and the hex address:port pairs) and the
// header does not, so records are the lines that contain ':'.
type socketTableCollector struct {
	performance.BaseCollector
	tables []connectionTable
}

func newSocketTableCollector(
	metricType performance.MetricType,
	name string,
	logger logr.Logger,
	config performance.CollectionConfig,
) (socketTableCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return socketTableCollector{}, err
	}

	base := string(metricType)
	tables := []connectionTable{
		{path: filepath.Join(config.HostProcPath, "net", base)},
	}
	if config.IncludeIPv6 {
		tables = append(tables, connectionTable{
			path:     filepath.Join(config.HostProcPath, "net", base+"6"),
			optional: true,
		})
	}

	return socketTableCollector{
		BaseCollector: performance.NewBaseCollector(metricType, name, logger, config),
		tables:        tables,
	}, nil
}

func (c *socketTableCollector) Sources() []string {
	sources := make([]string, 0, len(c.tables))
	for _, table := range c.tables {
		sources = append(sources, table.path)
	}
	return sources
}

func (c *socketTableCollector) Sample() (performance.ConnectionStats, error) {
	var stats performance.ConnectionStats
	for _, table := range c.tables {
		count, err := countLines(table.path, func(line string) bool {
			return strings.Contains(line, ":")
		})
		if err != nil {
			if table.optional && errors.Is(err, fs.ErrNotExist) {
				c.Logger().V(2).Info("Optional socket table not present", "path", table.path)
				continue
			}
			return performance.ConnectionStats{}, err
		}
		stats.Count = proc.SaturatingAdd(stats.Count, count)
	}

	c.Logger().V(1).Info("Collected socket statistics", "count", stats.Count)
	return stats, nil
}

// TCPCollector counts TCP sockets in every state, listeners included.
type TCPCollector struct {
	socketTableCollector
}

func NewTCPCollector(logger logr.Logger, config performance.CollectionConfig) (*TCPCollector, error) {
	c, err := newSocketTableCollector(performance.MetricTypeTCP, "TCP Connection Collector", logger, config)
	if err != nil {
		return nil, err
	}
	return &TCPCollector{socketTableCollector: c}, nil
}

// UDPCollector counts open UDP sockets.
type UDPCollector struct {
	socketTableCollector
}

func NewUDPCollector(logger logr.Logger, config performance.CollectionConfig) (*UDPCollector, error) {
	c, err := newSocketTableCollector(performance.MetricTypeUDP, "UDP Socket Collector", logger, config)
	if err != nil {
		return nil, err
	}
	return &UDPCollector{socketTableCollector: c}, nil
}

// ConntrackCollector counts flows tracked by netfilter in /proc/net/nf_conntrack
//
// The file has no header; each line is one flow. It only exists while the
// nf_conntrack module is loaded, so SourceUnavailable is an ordinary outcome here.
type ConntrackCollector struct {
	performance.BaseCollector
	conntrackPath string
}

func NewConntrackCollector(logger logr.Logger, config performance.CollectionConfig) (*ConntrackCollector, error) {
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, err
	}

	return &ConntrackCollector{
		BaseCollector: performance.NewBaseCollector(
			performance.MetricTypeConntrack,
			"Conntrack Session Collector",
			logger,
			config,
		),
		conntrackPath: filepath.Join(config.HostProcPath, "net", "nf_conntrack"),
	}, nil
}

func (c *ConntrackCollector) Sources() []string {
	return []string{c.conntrackPath}
}

func (c *ConntrackCollector) Sample() (performance.ConnectionStats, error) {
	count, err := countLines(c.conntrackPath, func(string) bool { return true })
	if err != nil {
		return performance.ConnectionStats{}, err
	}

	c.Logger().V(1).Info("Collected conntrack statistics", "sessions", count)
	return performance.ConnectionStats{Count: count}, nil
}

func countLines(path string, match func(string) bool) (uint64, error) {
	var count uint64
	err := proc.ScanLines(path, func(_ int, line string) error {
		if match(line) {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
