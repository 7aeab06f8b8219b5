// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package exporter exposes server status metrics to Prometheus.
//
// Every scrape resamples the host, so the scrape interval is the sampling interval and
// rates cover the time between two scrapes.
package exporter

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "server_status"

// StatusSource is the part of *serverstatus.Status the exporter reads
type StatusSource interface {
	Update() error

	CPUUsage() (float32, bool)
	CPULocalUsage() (float32, bool)
	CPUStolenUsage() (float32, bool)
	CPUIdle() (float32, bool)
	NetBandwidth() (uint64, bool)
	NetReceptionBandwidth() (uint64, bool)
	NetTransmissionBandwidth() (uint64, bool)
	RAMUsage() (float32, bool)
	RAMSwapUsage() (float32, bool)
	TCPConnections() (uint64, bool)
	UDPSockets() (uint64, bool)
	ConntrackSessions() (uint64, bool)
}

type gauge struct {
	desc  *prometheus.Desc
	value func(StatusSource) (float64, bool)
}

func ratioGauge(name, help string, get func(StatusSource) (float32, bool)) gauge {
	return gauge{
		desc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: func(s StatusSource) (float64, bool) {
			v, ok := get(s)
			return float64(v), ok
		},
	}
}

func countGauge(name, help string, get func(StatusSource) (uint64, bool)) gauge {
	return gauge{
		desc: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
		value: func(s StatusSource) (float64, bool) {
			v, ok := get(s)
			return float64(v), ok
		},
	}
}

// Collector is a prometheus.Collector that updates its StatusSource on every scrape.
// Scrapes are serialized, so the source is never used concurrently.
type Collector struct {
	mu     sync.Mutex
	status StatusSource
	logger logr.Logger

	gauges        []gauge
	updateSuccess *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(status StatusSource, logger logr.Logger) *Collector {
	return &Collector{
		status: status,
		logger: logger.WithName("exporter"),
		gauges: []gauge{
			ratioGauge("cpu_usage_ratio", "Fraction of CPU time spent busy, stolen time included.", StatusSource.CPUUsage),
			ratioGauge("cpu_local_usage_ratio", "Fraction of CPU time spent busy in this OS.", StatusSource.CPULocalUsage),
			ratioGauge("cpu_stolen_usage_ratio", "Fraction of CPU time stolen by the hypervisor.", StatusSource.CPUStolenUsage),
			ratioGauge("cpu_idle_ratio", "Fraction of CPU time spent idle or waiting on I/O.", StatusSource.CPUIdle),
			countGauge("network_bandwidth_bytes", "Bytes per second received and transmitted on non-loopback interfaces.", StatusSource.NetBandwidth),
			countGauge("network_receive_bandwidth_bytes", "Bytes per second received on non-loopback interfaces.", StatusSource.NetReceptionBandwidth),
			countGauge("network_transmit_bandwidth_bytes", "Bytes per second transmitted on non-loopback interfaces.", StatusSource.NetTransmissionBandwidth),
			ratioGauge("memory_usage_ratio", "Fraction of memory in use.", StatusSource.RAMUsage),
			ratioGauge("swap_usage_ratio", "Fraction of swap in use.", StatusSource.RAMSwapUsage),
			countGauge("tcp_connections", "Number of TCP sockets.", StatusSource.TCPConnections),
			countGauge("udp_sockets", "Number of UDP sockets.", StatusSource.UDPSockets),
			countGauge("conntrack_sessions", "Number of flows tracked by netfilter.", StatusSource.ConntrackSessions),
		},
		updateSuccess: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "last_update_success"),
			"1 if every enabled metric source was sampled successfully on this scrape.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
	ch <- c.updateSuccess
}

// Collect resamples the status and emits every metric that has a value. Metrics
// without enough samples yet are left out of the scrape.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	success := 1.0
	if err := c.status.Update(); err != nil {
		c.logger.Error(err, "Scrape served with partially stale metrics")
		success = 0
	}
	ch <- prometheus.MustNewConstMetric(c.updateSuccess, prometheus.GaugeValue, success)

	emitted := 0
	for _, g := range c.gauges {
		v, ok := g.value(c.status)
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, v)
		emitted++
	}
	c.logger.V(1).Info("Served scrape", "metrics", emitted)
}
