// Package overlay implements spec.md §4.2 (Overlay Composer): mounting
// an OverlayFS rootfs from a base image, an optional shared deps layer,
// and a per-app writable upper/work pair.
package overlay

import (
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// Spec describes one overlay mount request.
type Spec struct {
	Target  string // mount point, e.g. apps/<slug>/rootfs
	Base    string // immutable lower (a base image dir, or a resolved deps rootfs)
	DepsID  string // optional; resolved via Resolver before Mount
	Upper   string
	Work    string
}

// Resolver resolves a deps_id to either its own materialized rootfs (if
// already composed and populated) or the raw deps layer/base pair that
// must be layered under the app's overlay. It exists so overlay doesn't
// import the deps-layer orchestration directly.
type Resolver interface {
	// DepsRootfs returns the deps layer's rootfs path and whether it is
	// already populated (has etc/os-release).
	DepsRootfs(depsID string) (rootfs string, populated bool)
	DepsUpper(depsID string) string
	DepsWork(depsID string) string
}

// Mount composes and mounts the overlay described by spec. If spec.DepsID
// is set, the deps layer is mounted first (recursively, via the same
// composition rules) unless it is already populated, in which case its
// rootfs is used directly as the lowerdir.
func Mount(spec Spec, resolver Resolver) error {
	lowerdir := spec.Base
	if err := requireExists(spec.Base); err != nil {
		return err
	}

	if spec.DepsID != "" {
		depsRootfs, populated := resolver.DepsRootfs(spec.DepsID)
		if populated {
			lowerdir = depsRootfs
		} else {
			depsUpper := resolver.DepsUpper(spec.DepsID)
			depsWork := resolver.DepsWork(spec.DepsID)
			if err := mkdirs(depsUpper, depsWork); err != nil {
				return err
			}
			if err := mountOverlay(depsRootfs, spec.Base, depsUpper, depsWork); err != nil {
				return err
			}
			lowerdir = depsUpper + ":" + spec.Base
		}
	}

	if err := mkdirs(spec.Upper, spec.Work); err != nil {
		return err
	}
	return mountOverlay(spec.Target, lowerdir, spec.Upper, spec.Work)
}

func requireExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &voiderr.OverlayBaseMissing{Path: path}
	}
	return nil
}

func mkdirs(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return &voiderr.OverlayUnavailable{Path: p, Reason: err.Error()}
		}
	}
	return nil
}

// mountOverlay attempts the mount with userxattr first (required on
// kernels that default to user.* xattrs for unprivileged overlays since
// 5.11), retrying once without it on failure — the only fallback this
// composer negotiates.
func mountOverlay(target, lowerdir, upperdir, workdir string) error {
	base := "lowerdir=" + lowerdir + ",upperdir=" + upperdir + ",workdir=" + workdir

	opts := base + ",userxattr"
	if err := unix.Mount("overlay", target, "overlay", 0, opts); err == nil {
		return nil
	} else {
		vlog.Debugf("overlay mount with userxattr failed on %s (%s), retrying without", target, err)
	}

	if err := unix.Mount("overlay", target, "overlay", 0, base); err != nil {
		return &voiderr.OverlayUnavailable{Path: target, Reason: err.Error()}
	}
	return nil
}

// legacyBindFallback bind-mounts a pre-existing flat rootfs directly. The
// supervisor uses it only for legacy launches whose app has no base.json;
// a failed overlay mount is returned as OverlayUnavailable and is not
// retried as a bind mount.
func legacyBindFallback(target, rootfs string) error {
	if err := unix.Mount(rootfs, target, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
		return &voiderr.OverlayUnavailable{Path: target, Reason: err.Error()}
	}
	return nil
}

// LegacyBindFallback is the exported entry point for legacy-mode launches
// (spec.md §3's "legacy" rootfs layout, where rootfs is a real directory
// and layer/work are unused).
func LegacyBindFallback(target, rootfs string) error {
	return legacyBindFallback(target, rootfs)
}

// IsLowerdirColonJoined reports whether a lowerdir string is the
// deps:base pair form rather than a single resolved path, purely to make
// the composition rule testable without mounting anything.
func IsLowerdirColonJoined(lowerdir string) bool {
	return strings.Contains(lowerdir, ":")
}
