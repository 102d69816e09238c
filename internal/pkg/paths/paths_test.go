package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")
	assert.Equal(t, filepath.Join("/tmp/xdg-test", AppName), DataDir())
}

func TestAppPathsNestUnderAppDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")
	slug := "demo"
	assert.Equal(t, filepath.Join(AppDir(slug), "rootfs"), AppRootfsDir(slug))
	assert.Equal(t, filepath.Join(AppDir(slug), "layer"), AppUpperDir(slug))
	assert.Equal(t, filepath.Join(AppDir(slug), "work"), AppWorkDir(slug))
	assert.Equal(t, filepath.Join(AppDir(slug), "base.json"), AppBaseInfoPath(slug))
}

func TestDepsPathsKeyedByDepsID(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-test")
	assert.Equal(t, filepath.Join(DepsDir(), "X"), DepsLayerDir("X"))
	assert.Equal(t, filepath.Join(DepsDir(), "X", "rootfs"), DepsRootfsDir("X"))
}
