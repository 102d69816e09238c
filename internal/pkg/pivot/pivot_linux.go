// Package pivot implements spec.md §4.5 (Pivot & Enter): making an
// assembled rootfs the process's new / via pivot_root(2), then dropping
// the old root and mounting a fresh procfs for the new PID namespace.
package pivot

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

const oldRootDirName = ".voidbox-old-root"

// Enter pivots the process root to rootfs, mounts a fresh procfs, detaches
// the old root, and sets the container hostname (skipped when hostname is
// empty; native-mode launches pass the host's own hostname).
func Enter(rootfs, hostname string) error {
	if err := os.Chdir(rootfs); err != nil {
		return &voiderr.PivotFailed{Reason: "chdir to rootfs", Err: err}
	}

	oldRoot := filepath.Join(rootfs, oldRootDirName)
	if err := os.MkdirAll(oldRoot, 0o700); err != nil {
		return &voiderr.PivotFailed{Reason: "mkdir old root", Err: err}
	}

	if err := unix.PivotRoot(".", oldRootDirName); err != nil {
		return &voiderr.PivotFailed{Reason: "pivot_root", Err: err}
	}

	if err := os.Chdir("/"); err != nil {
		return &voiderr.PivotFailed{Reason: "chdir to new root", Err: err}
	}

	if err := os.MkdirAll("/proc", 0o555); err != nil {
		return &voiderr.PivotFailed{Reason: "mkdir /proc", Err: err}
	}
	if err := unix.Mount("proc", "/proc", "proc", 0, ""); err != nil {
		return &voiderr.PivotFailed{Reason: "mount proc", Err: err}
	}

	oldRootInNewRoot := "/" + oldRootDirName
	if err := unix.Unmount(oldRootInNewRoot, unix.MNT_DETACH); err != nil {
		vlog.Warningf("lazy-unmount of old root failed (continuing): %s", err)
	} else if err := os.Remove(oldRootInNewRoot); err != nil {
		vlog.Debugf("rmdir old root: %s", err)
	}

	if hostname != "" {
		if err := unix.Sethostname([]byte(hostname)); err != nil {
			return &voiderr.PivotFailed{Reason: "sethostname", Err: err}
		}
	}

	vlog.Debugf("pivoted into %s", rootfs)
	return nil
}
