// Package testrequire gates privilege- or environment-dependent tests
// behind runtime probes, skipping rather than failing when the test
// host can't support what's being tested (e.g. user namespaces disabled
// by sysctl in a CI sandbox).
package testrequire

import (
	"os/exec"
	"sync"
	"syscall"
	"testing"
)

var (
	hasUserNamespace     bool
	hasUserNamespaceOnce sync.Once
)

// UserNamespace skips the test if the kernel won't let an unprivileged
// process create a user namespace.
func UserNamespace(t *testing.T) {
	hasUserNamespaceOnce.Do(func() {
		cmd := exec.Command("/bin/true")
		cmd.SysProcAttr = &syscall.SysProcAttr{Cloneflags: syscall.CLONE_NEWUSER}
		err := cmd.Run()
		hasUserNamespace = err == nil
		if !hasUserNamespace {
			t.Logf("user namespaces unavailable: %s", err)
		}
	})
	if !hasUserNamespace {
		t.Skip("user namespaces not enabled or supported")
	}
}

// Command skips the test if name is not found on PATH.
func Command(t *testing.T, name string) {
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not found in $PATH", name)
	}
}
