package supervisor

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/overlay"
	"github.com/voidbox/voidbox/internal/pkg/pivot"
	"github.com/voidbox/voidbox/internal/pkg/nsorchestrator"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// RunMinimal enters fresh namespaces and pivots into rootfs without any of
// the permission-derived bind mounts, identity masquerade, bridge shims, or
// environment shaping the full launch flow applies. It backs the hidden
// internal-run subcommand, used by the installer to run a one-off script
// (package installation) inside a rootfs that isn't a running app yet.
//
// If VOIDBOX_DEPS_BASE is set in the environment, rootfs is first composed
// as an overlay of that base plus VOIDBOX_DEPS_UPPER/VOIDBOX_DEPS_WORK,
// rather than treated as an already-materialized directory; this lets the
// deps-layer builder reuse the documented internal-run grammar without a
// new hidden subcommand.
func RunMinimal(rootfs, cmd string, args []string) (int, error) {
	if err := nsorchestrator.EnterUserNamespace(); err != nil {
		return 1, err
	}
	if err := nsorchestrator.EnterContainerNamespaces(); err != nil {
		return 1, err
	}

	if base := os.Getenv("VOIDBOX_DEPS_BASE"); base != "" {
		spec := overlay.Spec{
			Target: rootfs,
			Base:   base,
			Upper:  os.Getenv("VOIDBOX_DEPS_UPPER"),
			Work:   os.Getenv("VOIDBOX_DEPS_WORK"),
		}
		if err := overlay.Mount(spec, nil); err != nil {
			return 1, err
		}
	}

	if err := applyMinimalMounts(rootfs); err != nil {
		return 1, err
	}
	if err := pivot.Enter(rootfs, containerHostname); err != nil {
		return 1, err
	}

	os.Setenv("PATH", "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin")
	os.Setenv("HOME", "/root")
	os.Setenv("DEBIAN_FRONTEND", "noninteractive")

	return spawnAndReap(cmd, args)
}

// applyMinimalMounts gives a bare rootfs just enough of /proc, /sys, /dev,
// and /tmp to run a package manager script; it is not driven by
// mountpolicy since it has nothing to do with any app's declared
// permissions.
func applyMinimalMounts(rootfs string) error {
	if err := unix.Mount("", "/", "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
		return &voiderr.MountFailed{Requirement: voiderr.MountRequired, Source: "/", Target: "/", Err: err}
	}

	mounts := []struct {
		source, target, fstype string
		flags                  uintptr
	}{
		{"proc", rootfs + "/proc", "proc", 0},
		{"sysfs", rootfs + "/sys", "sysfs", 0},
		{"/dev", rootfs + "/dev", "", unix.MS_BIND | unix.MS_REC},
		{"tmpfs", rootfs + "/tmp", "tmpfs", 0},
	}
	for _, m := range mounts {
		if err := os.MkdirAll(m.target, 0o755); err != nil {
			return &voiderr.MountFailed{Requirement: voiderr.MountRequired, Source: m.source, Target: m.target, Err: err}
		}
		if err := unix.Mount(m.source, m.target, m.fstype, m.flags, ""); err != nil {
			return &voiderr.MountFailed{Requirement: voiderr.MountRequired, Source: m.source, Target: m.target, Err: err}
		}
	}
	return nil
}
