// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package performance

import (
	"github.com/go-logr/logr"
)

// Sampler reads one kernel data source and parses it into a snapshot.
//
// Sample performs exactly one blocking read of the source and does not depend on any
// earlier sample. Sources lists the files Sample reads, relative paths already resolved
// against the configured proc root.
type Sampler[T any] interface {
	Type() MetricType
	Name() string
	Sources() []string
	Sample() (T, error)
}

// BaseCollector carries the fields every sampler shares
type BaseCollector struct {
	metricType MetricType
	name       string
	logger     logr.Logger
	Config     CollectionConfig
}

func NewBaseCollector(metricType MetricType, name string, logger logr.Logger, config CollectionConfig) BaseCollector {
	return BaseCollector{
		metricType: metricType,
		name:       name,
		logger:     logger.WithName(string(metricType)),
		Config:     config,
	}
}

func (b *BaseCollector) Type() MetricType {
	return b.metricType
}

func (b *BaseCollector) Name() string {
	return b.name
}

func (b *BaseCollector) Logger() logr.Logger {
	return b.logger
}
