package supervisor

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// becomeSubreaper marks this process PR_SET_CHILD_SUBREAPER so daemons the
// target forks and detaches reparent here instead of escaping to the real
// init (spec.md §4.7 rationale: desktop apps like Electron often fork a
// launcher that exits immediately).
func becomeSubreaper() error {
	return unix.Prctl(unix.PR_SET_CHILD_SUBREAPER, 1, 0, 0, 0)
}

// spawnAndReap runs cmd as a child (never exec-replacing this process, so
// the orphan-drain loop below can run), waits for it, then reaps every
// remaining descendant before returning the direct child's exit code.
func spawnAndReap(cmd string, args []string) (int, error) {
	child := exec.Command(cmd, args...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	if err := child.Start(); err != nil {
		return 1, &voiderr.ExecFailed{Cmd: cmd, Err: err}
	}

	waitErr := child.Wait()
	exitCode := exitCodeOf(waitErr)

	drainOrphans()

	return exitCode, nil
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
	}
	return 1
}

func asExitError(err error, target **exec.ExitError) bool {
	if e, ok := err.(*exec.ExitError); ok {
		*target = e
		return true
	}
	return false
}

// drainOrphans waits on any remaining child ("wait any") until the kernel
// reports ECHILD, reaping everything the subreaper adopted.
func drainOrphans() {
	for {
		var status syscall.WaitStatus
		_, err := syscall.Wait4(-1, &status, 0, nil)
		if err == syscall.ECHILD {
			return
		}
		if err != nil {
			return
		}
	}
}
