package nsorchestrator

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidbox/voidbox/internal/pkg/testrequire"
)

func TestEnterUserNamespaceMapsCallerToRoot(t *testing.T) {
	testrequire.UserNamespace(t)

	done := make(chan error, 1)
	go func() {
		// unshare(CLONE_NEWUSER) only affects the calling OS thread, so
		// this goroutine must never migrate to another one.
		runtime.LockOSThread()
		done <- EnterUserNamespace()
	}()
	err := <-done
	if err != nil {
		t.Skipf("user namespace unavailable in this environment: %v", err)
	}

	uidMap, rerr := os.ReadFile("/proc/self/uid_map")
	require.NoError(t, rerr)
	assert.Contains(t, string(uidMap), "0")
}
