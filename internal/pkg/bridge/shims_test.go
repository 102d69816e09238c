package bridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallShimsWritesExecutableScripts(t *testing.T) {
	rootfs := t.TempDir()
	require.NoError(t, InstallShims(rootfs, 54321, "deadbeef"))

	for _, name := range []string{"sudo", "host-exec"} {
		path := filepath.Join(rootfs, ShimDir, name)
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "/dev/tcp/127.0.0.1/54321")
		assert.Contains(t, string(content), "deadbeef")
	}

	sudoContent, err := os.ReadFile(filepath.Join(rootfs, ShimDir, "sudo"))
	require.NoError(t, err)
	assert.Contains(t, string(sudoContent), `"SUDO $*"`)

	execContent, err := os.ReadFile(filepath.Join(rootfs, ShimDir, "host-exec"))
	require.NoError(t, err)
	assert.Contains(t, string(execContent), `"EXEC $*"`)
}
