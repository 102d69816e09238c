package overlay

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/hostbin"
	"github.com/voidbox/voidbox/internal/pkg/vlog"
)

// statfs is a var (not a direct call) so unit tests can stub it.
var statfs = unix.Statfs

type overlayRole uint8

const (
	_ overlayRole = 1 << iota
	asLower
	asUpper
)

type incompatibleFS struct {
	name string
	role overlayRole
}

// Filesystem magic numbers known not to support being used as an
// overlay directory in some or all roles.
const (
	magicNFS    int64 = 0x6969
	magicFuse   int64 = 0x65735546
	magicEcrypt int64 = 0xF15F
)

var incompatible = map[int64]incompatibleFS{
	magicNFS:    {name: "NFS", role: asUpper},
	magicFuse:   {name: "FUSE", role: asUpper},
	magicEcrypt: {name: "ECRYPT", role: asLower | asUpper},
}

type errIncompatibleFS struct {
	path string
	name string
	role overlayRole
}

func (e *errIncompatibleFS) Error() string {
	roleName := "lower"
	if e.role == asUpper {
		roleName = "upper"
	}
	return fmt.Sprintf("%s is on a %s filesystem, incompatible as overlay %s directory", e.path, e.name, roleName)
}

func checkRole(path string, role overlayRole) error {
	st := &unix.Statfs_t{}
	if err := statfs(path, st); err != nil {
		return fmt.Errorf("statfs %s: %w", path, err)
	}
	fs, ok := incompatible[int64(st.Type)]
	if !ok || fs.role&role == 0 {
		return nil
	}
	return &errIncompatibleFS{path: path, name: fs.name, role: role}
}

// CheckUpper reports an error if path's filesystem cannot back an
// overlay upperdir (e.g. NFS, which does not support the trusted xattrs
// overlayfs needs for whiteouts).
func CheckUpper(path string) error { return checkRole(path, asUpper) }

// CheckLower reports an error if path's filesystem cannot back an
// overlay lowerdir.
func CheckLower(path string) error { return checkRole(path, asLower) }

var ErrRootlessUnsupported = errors.New("rootless overlay mounts not supported by this kernel")

// CheckRootlessSupport probes whether the running kernel allows an
// unprivileged user namespace to mount overlayfs at all, by attempting a
// harmless overlay mount of two read-only host directories under a
// throwaway user+mount namespace. Returns ErrRootlessUnsupported when the
// probe mount fails.
func CheckRootlessSupport() error {
	mountBin, err := hostbin.Find("mount")
	if err != nil {
		return fmt.Errorf("looking for mount command: %w", err)
	}

	cmd := exec.Command(mountBin, "-t", "overlay", "-o", "lowerdir=/etc:/usr", "none", os.TempDir())
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Unshareflags: syscall.CLONE_NEWUSER | syscall.CLONE_NEWNS,
		UidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getuid(), Size: 1},
		},
		GidMappings: []syscall.SysProcIDMap{
			{ContainerID: 0, HostID: os.Getgid(), Size: 1},
		},
	}
	out, err := cmd.CombinedOutput()
	if err != nil {
		vlog.Debugf("rootless overlay probe failed: %s\n%s", err, out)
		return ErrRootlessUnsupported
	}
	return nil
}
