package supervisor

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyEnvironmentNonNativeSetsFixedPath(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("DISPLAY", "")
	t.Setenv("XDG_RUNTIME_DIR", "")

	applyEnvironment(false)

	assert.Contains(t, os.Getenv("PATH"), "/host/user/bin")
	assert.Equal(t, "/root", os.Getenv("HOME"))
	assert.Equal(t, ":0", os.Getenv("DISPLAY"))
}

func TestApplyEnvironmentNativePrependsShimDir(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")

	applyEnvironment(true)

	assert.Equal(t, "/.voidbox/bin:/usr/bin", os.Getenv("PATH"))
}

func TestApplyEnvironmentPreservesExplicitDisplay(t *testing.T) {
	t.Setenv("DISPLAY", ":1")

	applyEnvironment(false)

	assert.Equal(t, ":1", os.Getenv("DISPLAY"))
}

func TestApplyEnvironmentRecomputesXDGRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	applyEnvironment(false)

	assert.Equal(t, "/run/user/1000", os.Getenv("XDG_RUNTIME_DIR"))
	assert.Equal(t, "unix:/run/user/1000/pulse/native", os.Getenv("PULSE_SERVER"))
}
