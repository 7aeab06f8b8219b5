// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antimetal/server-status/pkg/performance"
)

// setupProcRoot writes files (paths relative to the proc root) into a temporary
// directory and returns a config pointing at it.
func setupProcRoot(t *testing.T, files map[string]string) performance.CollectionConfig {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return performance.CollectionConfig{HostProcPath: root}
}
