// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package serverstatus turns periodic samples of /proc into server health metrics.
//
// A Status owns the two most recent snapshots of every enabled metric domain. Each call
// to Update resamples all of them; accessors then derive utilization ratios and rates
// from the snapshot pair (or, for levels and counts, from the latest snapshot alone).
//
//	status, err := serverstatus.New(serverstatus.Options{Logger: logger})
//	if err != nil {
//		return err
//	}
//	for range ticker.C {
//		if err := status.Update(); err != nil {
//			logger.Error(err, "some metrics are stale")
//		}
//		if usage, ok := status.CPUUsage(); ok {
//			fmt.Printf("cpu %.1f%%\n", usage*100)
//		}
//	}
//
// A Status is not safe for concurrent use.
package serverstatus

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/antimetal/server-status/pkg/performance"
	"github.com/antimetal/server-status/pkg/performance/collectors"
	"github.com/antimetal/server-status/pkg/proc"
)

type Options struct {
	// Config selects the enabled domains and the proc root. Zero values are filled in
	// from performance.DefaultCollectionConfig.
	Config performance.CollectionConfig
	// Logger defaults to logr.Discard().
	Logger logr.Logger
	// Clock timestamps network samples. Defaults to time.Now.
	Clock func() time.Time
}

// Status holds the sampled state of every enabled domain
type Status struct {
	config performance.CollectionConfig
	logger logr.Logger

	cpu       *domain[performance.CPUCounters]
	net       *domain[performance.NetCounters]
	mem       *domain[performance.MemoryStats]
	tcp       *domain[performance.ConnectionStats]
	udp       *domain[performance.ConnectionStats]
	conntrack *domain[performance.ConnectionStats]

	// Enabled domains in update order
	domains     []updater
	unavailable map[performance.MetricType]string
}

type updater interface {
	metricType() performance.MetricType
	update() error
	primarySource() string
}

// domain pairs a sampler with the snapshots it produced
type domain[T any] struct {
	sampler performance.Sampler[T]
	state   performance.SourceState[T]
}

func (d *domain[T]) metricType() performance.MetricType {
	return d.sampler.Type()
}

func (d *domain[T]) update() error {
	snapshot, err := d.sampler.Sample()
	if err != nil {
		d.state.Invalidate()
		return err
	}
	d.state.Replace(snapshot)
	return nil
}

func (d *domain[T]) primarySource() string {
	return d.sampler.Sources()[0]
}

func newDomain[T any](sampler performance.Sampler[T], err error) (*domain[T], error) {
	if err != nil {
		return nil, err
	}
	return &domain[T]{sampler: sampler}, nil
}

// New builds a Status for the domains enabled in opts.Config. No source is read, so
// every metric is absent until the first Update.
func New(opts Options) (*Status, error) {
	logger := opts.Logger
	if logger.GetSink() == nil {
		logger = logr.Discard()
	}
	logger = logger.WithName("server-status")

	config := opts.Config
	config.ApplyDefaults()
	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return nil, fmt.Errorf("invalid collection config: %w", err)
	}

	s := &Status{
		config:      config,
		logger:      logger,
		unavailable: make(map[performance.MetricType]string),
	}

	var netOpts []collectors.NetworkOption
	if opts.Clock != nil {
		netOpts = append(netOpts, collectors.WithClock(opts.Clock))
	}

	var err error
	for _, mt := range performance.MetricTypes {
		if !config.IsEnabled(mt) {
			continue
		}
		switch mt {
		case performance.MetricTypeCPU:
			s.cpu, err = newDomain[performance.CPUCounters](collectors.NewCPUCollector(logger, config))
			if err == nil {
				s.domains = append(s.domains, s.cpu)
			}
		case performance.MetricTypeNetwork:
			s.net, err = newDomain[performance.NetCounters](collectors.NewNetworkCollector(logger, config, netOpts...))
			if err == nil {
				s.domains = append(s.domains, s.net)
			}
		case performance.MetricTypeMemory:
			s.mem, err = newDomain[performance.MemoryStats](collectors.NewMemoryCollector(logger, config))
			if err == nil {
				s.domains = append(s.domains, s.mem)
			}
		case performance.MetricTypeTCP:
			s.tcp, err = newDomain[performance.ConnectionStats](collectors.NewTCPCollector(logger, config))
			if err == nil {
				s.domains = append(s.domains, s.tcp)
			}
		case performance.MetricTypeUDP:
			s.udp, err = newDomain[performance.ConnectionStats](collectors.NewUDPCollector(logger, config))
			if err == nil {
				s.domains = append(s.domains, s.udp)
			}
		case performance.MetricTypeConntrack:
			s.conntrack, err = newDomain[performance.ConnectionStats](collectors.NewConntrackCollector(logger, config))
			if err == nil {
				s.domains = append(s.domains, s.conntrack)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create %s collector: %w", mt, err)
		}
	}

	// Unreadable sources stay enabled: conntrack, for one, appears when its module loads
	for _, d := range s.domains {
		if err := proc.CheckReadable(d.primarySource()); err != nil {
			s.unavailable[d.metricType()] = err.Error()
			logger.Info("Metric source currently unavailable", "metric_type", d.metricType(), "reason", err.Error())
		}
	}

	enabled := make([]performance.MetricType, 0, len(s.domains))
	for _, d := range s.domains {
		enabled = append(enabled, d.metricType())
	}
	logger.Info("Server status initialized", "host_proc", config.HostProcPath, "enabled", enabled)
	return s, nil
}

// Update resamples every enabled domain.
//
// A failing domain does not stop the others: every domain is attempted and the ones
// that succeed keep their fresh data. The failed domain loses its latest snapshot, so
// its metrics are absent until it samples successfully again. If any domain failed,
// Update returns the error of the first one in update order; the rest are logged.
func (s *Status) Update() error {
	var firstErr error
	failed := 0
	for _, d := range s.domains {
		if err := d.update(); err != nil {
			failed++
			s.logger.Error(err, "Failed to update metric", "metric_type", d.metricType())
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to update %s: %w", d.metricType(), err)
			}
		}
	}
	s.logger.V(1).Info("Updated server status", "domains", len(s.domains), "failed", failed)
	return firstErr
}

// Config returns the effective configuration, defaults applied.
func (s *Status) Config() performance.CollectionConfig {
	return s.config
}

// Enabled reports whether metricType is sampled by Update.
func (s *Status) Enabled(metricType performance.MetricType) bool {
	for _, d := range s.domains {
		if d.metricType() == metricType {
			return true
		}
	}
	return false
}

// Unavailable lists the enabled domains whose source could not be read when the
// Status was created, with the reason.
func (s *Status) Unavailable() map[performance.MetricType]string {
	out := make(map[performance.MetricType]string, len(s.unavailable))
	for mt, reason := range s.unavailable {
		out[mt] = reason
	}
	return out
}
