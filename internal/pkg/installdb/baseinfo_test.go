package installdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidbox/voidbox/internal/pkg/paths"
)

func TestWriteThenReadBaseInfoRoundTrips(t *testing.T) {
	withTempDataDir(t)

	require.NoError(t, WriteBaseInfo("demo", BaseInfo{Distro: "ubuntu", Arch: "amd64", Version: "24.04", DepsID: "X"}))

	info, err := ReadBaseInfo("demo")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "ubuntu", info.Distro)
	assert.Equal(t, "X", info.DepsID)
}

func TestReadBaseInfoMissingReturnsNil(t *testing.T) {
	withTempDataDir(t)

	info, err := ReadBaseInfo("never-installed")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestPruneDepsLayerRemovesWhenUnreferenced(t *testing.T) {
	withTempDataDir(t)

	depsDir := paths.DepsLayerDir("X")
	require.NoError(t, os.MkdirAll(depsDir, 0o755))
	require.NoError(t, os.MkdirAll(paths.AppDir("other"), 0o755))
	require.NoError(t, WriteBaseInfo("other", BaseInfo{Distro: "ubuntu", Arch: "amd64", Version: "24.04"}))

	require.NoError(t, PruneDepsLayer("X", "removed-app"))

	_, err := os.Stat(depsDir)
	assert.True(t, os.IsNotExist(err))
}

func TestPruneDepsLayerKeepsWhenStillReferenced(t *testing.T) {
	withTempDataDir(t)

	depsDir := paths.DepsLayerDir("X")
	require.NoError(t, os.MkdirAll(depsDir, 0o755))
	require.NoError(t, os.MkdirAll(paths.AppDir("other"), 0o755))
	require.NoError(t, WriteBaseInfo("other", BaseInfo{Distro: "ubuntu", Arch: "amd64", Version: "24.04", DepsID: "X"}))

	require.NoError(t, PruneDepsLayer("X", "removed-app"))

	info, err := os.Stat(depsDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPruneDepsLayerAbortsOnUnreadableBaseInfo(t *testing.T) {
	withTempDataDir(t)

	depsDir := paths.DepsLayerDir("X")
	require.NoError(t, os.MkdirAll(depsDir, 0o755))
	require.NoError(t, os.MkdirAll(paths.AppDir("broken"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.AppDir("broken"), "base.json"), []byte("not json"), 0o644))

	err := PruneDepsLayer("X", "removed-app")
	assert.ErrorIs(t, err, ErrGCAborted)

	_, statErr := os.Stat(depsDir)
	assert.NoError(t, statErr)
}
