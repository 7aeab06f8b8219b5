// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antimetal/server-status/pkg/performance"
)

func TestCollectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  performance.CollectionConfig
		opts    performance.ValidateOptions
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid absolute path",
			config: performance.CollectionConfig{HostProcPath: "/proc"},
		},
		{
			name:   "empty path is valid when not required",
			config: performance.CollectionConfig{HostProcPath: ""},
		},
		{
			name:    "empty path fails when required",
			config:  performance.CollectionConfig{HostProcPath: ""},
			opts:    performance.ValidateOptions{RequireHostProcPath: true},
			wantErr: true,
			errMsg:  "HostProcPath is required but not provided",
		},
		{
			name:    "invalid relative proc path",
			config:  performance.CollectionConfig{HostProcPath: "proc"},
			wantErr: true,
			errMsg:  "HostProcPath must be an absolute path, got: \"proc\"",
		},
		{
			name: "unknown metric type",
			config: performance.CollectionConfig{
				HostProcPath:      "/proc",
				EnabledCollectors: map[performance.MetricType]bool{"disk": true},
			},
			wantErr: true,
			errMsg:  "unknown metric type \"disk\"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(tt.opts)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCollectionConfig_ApplyDefaults(t *testing.T) {
	var config performance.CollectionConfig
	config.ApplyDefaults()

	assert.Equal(t, "/proc", config.HostProcPath)
	for _, mt := range performance.MetricTypes {
		assert.True(t, config.IsEnabled(mt), "%s should be enabled by default", mt)
	}

	config = performance.CollectionConfig{
		HostProcPath:      "/host/proc",
		EnabledCollectors: map[performance.MetricType]bool{performance.MetricTypeCPU: true},
	}
	config.ApplyDefaults()
	assert.Equal(t, "/host/proc", config.HostProcPath)
	assert.True(t, config.IsEnabled(performance.MetricTypeCPU))
	assert.False(t, config.IsEnabled(performance.MetricTypeConntrack))
}

func TestParseMetricType(t *testing.T) {
	for _, mt := range performance.MetricTypes {
		got, err := performance.ParseMetricType(string(mt))
		require.NoError(t, err)
		assert.Equal(t, mt, got)
	}

	_, err := performance.ParseMetricType("numa")
	assert.Error(t, err)
}

func TestCPUCounters_Derived(t *testing.T) {
	c := performance.CPUCounters{
		User: 1, Nice: 2, System: 3, Idle: 4, IOWait: 5,
		IRQ: 6, SoftIRQ: 7, Steal: 8, Guest: 9, GuestNice: 10,
	}

	assert.Equal(t, uint64(1+2+3+6+7+9+10), c.LocalUse())
	assert.Equal(t, uint64(8), c.StolenUse())
	assert.Equal(t, uint64(38+8), c.Use())
	assert.Equal(t, uint64(9), c.IdleTime())
	assert.Equal(t, uint64(55), c.Total())

	saturated := performance.CPUCounters{User: math.MaxUint64, Idle: 1}
	assert.Equal(t, uint64(math.MaxUint64), saturated.Total())
}

func TestMemoryStats_Derived(t *testing.T) {
	m := performance.MemoryStats{
		MemTotal:     1000,
		MemFree:      400,
		Buffers:      50,
		Cached:       100,
		SReclaimable: 25,
		SwapTotal:    200,
		SwapFree:     150,
	}
	assert.Equal(t, uint64(425), m.Used())
	assert.Equal(t, uint64(50), m.SwapUsed())

	// Reclaimable memory larger than total never underflows
	skewed := performance.MemoryStats{MemTotal: 100, MemFree: 90, Cached: 50}
	assert.Equal(t, uint64(0), skewed.Used())
	assert.Equal(t, uint64(0), performance.MemoryStats{SwapFree: 10}.SwapUsed())
}

func TestNetCounters_Bytes(t *testing.T) {
	assert.Equal(t, uint64(30), performance.NetCounters{RxBytes: 10, TxBytes: 20}.Bytes())
	assert.Equal(t, uint64(math.MaxUint64), performance.NetCounters{RxBytes: math.MaxUint64, TxBytes: 1}.Bytes())
}
