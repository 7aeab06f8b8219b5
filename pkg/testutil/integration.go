// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

// Package testutil provides utilities for testing, with a focus on integration test helpers.
package testutil

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/antimetal/server-status/pkg/proc"
)

// RequireLinux skips the test if not running on Linux.
func RequireLinux(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" {
		t.Skip("Test requires Linux")
	}
}

// RequireLinuxFilesystem verifies that a real /proc is mounted.
func RequireLinuxFilesystem(t *testing.T) {
	t.Helper()
	RequireLinux(t)
	RequireProcFile(t, "self/stat")
}

// RequireProcFile skips the test unless /proc/<name> can be read. Use it for sources
// that depend on kernel modules, such as net/nf_conntrack.
func RequireProcFile(t *testing.T, name string) {
	t.Helper()
	RequireLinux(t)
	if err := proc.CheckReadable(filepath.Join("/proc", name)); err != nil {
		t.Skipf("Test requires /proc/%s: %v", name, err)
	}
}

// RequireKernelVersion checks if the kernel version meets the minimum requirement.
// The test is skipped if the kernel version is lower than required.
func RequireKernelVersion(t *testing.T, major, minor, patch int) {
	t.Helper()
	RequireLinux(t)

	kv, err := GetKernelVersion()
	if err != nil {
		t.Skipf("Failed to get kernel version: %v", err)
	}
	if !kv.AtLeast(major, minor, patch) {
		t.Skipf("Test requires kernel %d.%d.%d or higher, current is %s", major, minor, patch, kv.Full)
	}
}

// KernelVersion represents a parsed kernel version.
type KernelVersion struct {
	Major int
	Minor int
	Patch int
	Full  string
}

// AtLeast reports whether kv is the given version or newer.
func (kv KernelVersion) AtLeast(major, minor, patch int) bool {
	if kv.Major != major {
		return kv.Major > major
	}
	if kv.Minor != minor {
		return kv.Minor > minor
	}
	return kv.Patch >= patch
}

// GetKernelVersion returns the current kernel version.
func GetKernelVersion() (KernelVersion, error) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return KernelVersion{}, fmt.Errorf("failed to get kernel version: %w", err)
	}
	return ParseKernelVersion(unix.ByteSliceToString(utsname.Release[:]))
}

// ParseKernelVersion parses a release string such as "5.15.0-91-generic".
func ParseKernelVersion(release string) (KernelVersion, error) {
	parts := strings.Split(release, ".")
	if len(parts) < 2 {
		return KernelVersion{}, fmt.Errorf("unable to parse kernel version: %s", release)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return KernelVersion{}, fmt.Errorf("unable to parse major version: %w", err)
	}

	minor, err := strconv.Atoi(strings.SplitN(parts[1], "-", 2)[0])
	if err != nil {
		return KernelVersion{}, fmt.Errorf("unable to parse minor version: %w", err)
	}

	patch := 0
	if len(parts) >= 3 {
		// Handle suffixes like "0-generic"
		patch, _ = strconv.Atoi(strings.Split(parts[2], "-")[0])
	}

	return KernelVersion{
		Major: major,
		Minor: minor,
		Patch: patch,
		Full:  release,
	}, nil
}
