// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package environment provides utilities for extracting configuration from environment variables
package environment

import (
	"os"
	"strconv"
)

const (
	// HostProcEnv points at the host's /proc when running in a container
	HostProcEnv = "HOST_PROC"
	// IncludeIPv6Env turns on counting of IPv6 socket tables
	IncludeIPv6Env = "SERVER_STATUS_INCLUDE_IPV6"
)

// HostPaths contains the host filesystem paths for containerized environments
type HostPaths struct {
	Proc string // Path to /proc (e.g., /host/proc in containers)
}

// GetHostPaths returns the host filesystem paths from environment variables,
// with defaults if not set.
func GetHostPaths() HostPaths {
	paths := HostPaths{
		Proc: "/proc",
	}
	if procPath, ok := LookupHostProc(); ok {
		paths.Proc = procPath
	}
	return paths
}

// LookupHostProc returns HOST_PROC and whether it is set to a non-empty value.
func LookupHostProc() (string, bool) {
	procPath := os.Getenv(HostProcEnv)
	return procPath, procPath != ""
}

// LookupIncludeIPv6 parses SERVER_STATUS_INCLUDE_IPV6. The second result is false when
// the variable is unset or not a valid boolean.
func LookupIncludeIPv6() (bool, bool) {
	raw, ok := os.LookupEnv(IncludeIPv6Env)
	if !ok {
		return false, false
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return val, true
}
