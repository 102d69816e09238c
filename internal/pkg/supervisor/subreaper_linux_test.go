package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCodeOfNilIsZero(t *testing.T) {
	assert.Equal(t, 0, exitCodeOf(nil))
}

func TestExitCodeOfNonExitErrorDefaultsToOne(t *testing.T) {
	assert.Equal(t, 1, exitCodeOf(assertError{}))
}

type assertError struct{}

func (assertError) Error() string { return "not an exec.ExitError" }

func TestSpawnAndReapPropagatesExitCode(t *testing.T) {
	code, err := spawnAndReap("/bin/sh", []string{"-c", "exit 7"})
	if err != nil {
		t.Skipf("no /bin/sh available in this environment: %v", err)
	}
	assert.Equal(t, 7, code)
}

func TestSpawnAndReapDrainsBackgroundChild(t *testing.T) {
	// A direct child that backgrounds a sleeper and exits immediately;
	// spawnAndReap must return the direct child's exit code without
	// panicking or hanging on the orphaned sleeper (the sleep is short).
	code, err := spawnAndReap("/bin/sh", []string{"-c", "(sleep 0.2 &) ; exit 0"})
	if err != nil {
		t.Skipf("no /bin/sh available in this environment: %v", err)
	}
	assert.Equal(t, 0, code)
}
