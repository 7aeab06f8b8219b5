// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package config loads the collection configuration from a YAML file and the environment.
//
// Example file:
//
//	host_proc_path: /host/proc
//	include_ipv6: true
//	collectors:
//	  conntrack: false
//
// Collectors not listed keep their default (enabled).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"gopkg.in/yaml.v3"

	"github.com/antimetal/server-status/pkg/config/environment"
	"github.com/antimetal/server-status/pkg/performance"
)

var logger = stdr.New(log.New(os.Stderr, "[config] ", log.LstdFlags))

// SetLogger replaces the package logger.
func SetLogger(l logr.Logger) {
	logger = l
}

// File is the on-disk shape of the configuration.
type File struct {
	HostProcPath string          `yaml:"host_proc_path"`
	IncludeIPv6  *bool           `yaml:"include_ipv6"`
	Collectors   map[string]bool `yaml:"collectors"`
}

// Load reads the configuration file at path. An empty path yields the defaults.
func Load(path string) (performance.CollectionConfig, error) {
	if path == "" {
		return performance.DefaultCollectionConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return performance.CollectionConfig{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	config, err := Parse(data)
	if err != nil {
		return performance.CollectionConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	logger.Info("Loaded configuration", "path", path, "host_proc", config.HostProcPath)
	return config, nil
}

// Parse decodes a YAML document on top of the default configuration.
func Parse(data []byte) (performance.CollectionConfig, error) {
	config := performance.DefaultCollectionConfig()

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return performance.CollectionConfig{}, err
	}

	if file.HostProcPath != "" {
		config.HostProcPath = file.HostProcPath
	}
	if file.IncludeIPv6 != nil {
		config.IncludeIPv6 = *file.IncludeIPv6
	}
	for name, enabled := range file.Collectors {
		metricType, err := performance.ParseMetricType(name)
		if err != nil {
			return performance.CollectionConfig{}, fmt.Errorf("collectors: %w", err)
		}
		config.EnabledCollectors[metricType] = enabled
	}

	if err := config.Validate(performance.ValidateOptions{RequireHostProcPath: true}); err != nil {
		return performance.CollectionConfig{}, err
	}
	return config, nil
}

// ApplyEnvironment overrides config with HOST_PROC and SERVER_STATUS_INCLUDE_IPV6 when
// they are set.
func ApplyEnvironment(config *performance.CollectionConfig) {
	if procPath, ok := environment.LookupHostProc(); ok {
		logger.V(1).Info("Using host proc path from environment", "path", procPath)
		config.HostProcPath = procPath
	}
	if includeIPv6, ok := environment.LookupIncludeIPv6(); ok {
		config.IncludeIPv6 = includeIPv6
	}
}
