// Package nsorchestrator drives the unprivileged namespace setup from
// spec.md §4.4: a user namespace mapping the caller's uid/gid to 0 inside
// the container, followed by mount/UTS/IPC/PID namespace unsharing. It is
// called by internal/pkg/supervisor from whichever process becomes the
// container: the launching process itself in the standard flow, or the
// re-exec'd internal-init/internal-run child, since unshare(2) only affects
// the calling process.
package nsorchestrator

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// EnterUserNamespace unshares a new user namespace and maps the calling
// process's uid/gid to 0 inside it. The three /proc/self writes must
// happen in this exact order: uid_map, then setgroups=deny, then gid_map
// — the kernel refuses an unprivileged gid_map write until setgroups has
// been denied first.
func EnterUserNamespace() error {
	uid := os.Getuid()
	gid := os.Getgid()

	if err := unix.Unshare(unix.CLONE_NEWUSER); err != nil {
		return &voiderr.NamespaceFailed{Step: voiderr.StepUser, Err: err}
	}

	if err := writeProcSelf("uid_map", "0 "+strconv.Itoa(uid)+" 1"); err != nil {
		return &voiderr.NamespaceFailed{Step: voiderr.StepUser, Err: err}
	}
	if err := writeProcSelf("setgroups", "deny"); err != nil {
		return &voiderr.NamespaceFailed{Step: voiderr.StepUser, Err: err}
	}
	if err := writeProcSelf("gid_map", "0 "+strconv.Itoa(gid)+" 1"); err != nil {
		return &voiderr.NamespaceFailed{Step: voiderr.StepUser, Err: err}
	}

	vlog.Debugf("entered user namespace, mapped uid=%d gid=%d to 0", uid, gid)
	return nil
}

// EnterContainerNamespaces unshares mount, UTS, IPC and PID namespaces.
// It must run after EnterUserNamespace has completed the uid/gid mapping,
// since creating these namespaces requires CAP_SYS_ADMIN in the caller's
// (now-mapped) user namespace.
func EnterContainerNamespaces() error {
	flags := unix.CLONE_NEWNS | unix.CLONE_NEWUTS | unix.CLONE_NEWIPC | unix.CLONE_NEWPID
	if err := unix.Unshare(flags); err != nil {
		return &voiderr.NamespaceFailed{Step: voiderr.StepMount, Err: err}
	}
	vlog.Debugf("entered mount/uts/ipc/pid namespaces")
	return nil
}

func writeProcSelf(file, content string) error {
	return os.WriteFile("/proc/self/"+file, []byte(content), 0o644)
}
