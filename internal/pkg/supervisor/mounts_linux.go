package supervisor

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/mountpolicy"
	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// applyPermissionMounts makes "/" a private mount point (so nothing
// container-side leaks back to the host's mount namespace) and then
// applies every entry mountpolicy.Build produced, aborting on a missing
// or failing required mount and logging-then-skipping an optional one.
func applyPermissionMounts(rootfs string, entries []mountpolicy.Entry) error {
	if err := unix.Mount("", "/", "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
		return &voiderr.MountFailed{Requirement: voiderr.MountRequired, Source: "/", Target: "/", Err: err}
	}

	for _, entry := range entries {
		target := filepath.Join(rootfs, entry.Target)

		srcInfo, err := os.Stat(entry.Source)
		if err != nil {
			if entry.Required() {
				return &voiderr.MountFailed{
					Requirement: toRequirement(entry.Requirement),
					Source:      entry.Source, Target: entry.Target, Err: err,
				}
			}
			continue
		}

		if srcInfo.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil && entry.Required() {
				return &voiderr.MountFailed{Requirement: toRequirement(entry.Requirement), Source: entry.Source, Target: entry.Target, Err: err}
			}
		} else if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil && entry.Required() {
			return &voiderr.MountFailed{Requirement: toRequirement(entry.Requirement), Source: entry.Source, Target: entry.Target, Err: err}
		}
		if !srcInfo.IsDir() {
			if f, err := os.OpenFile(target, os.O_CREATE, 0o644); err == nil {
				f.Close()
			}
		}

		flags := uintptr(unix.MS_BIND | unix.MS_REC)
		if entry.ReadOnly() {
			flags |= unix.MS_RDONLY
		}
		if err := unix.Mount(entry.Source, target, "", flags, ""); err != nil {
			if entry.Required() {
				return &voiderr.MountFailed{Requirement: toRequirement(entry.Requirement), Source: entry.Source, Target: entry.Target, Err: err}
			}
			vlog.Warningf("optional mount %s -> %s failed: %v", entry.Source, entry.Target, err)
			continue
		}

		if entry.ReadOnly() {
			// MS_BIND ignores MS_RDONLY on the initial call; a remount is
			// required to actually enforce read-only on the bind.
			if err := unix.Mount("", target, "", flags|unix.MS_REMOUNT, ""); err != nil && entry.Required() {
				return &voiderr.MountFailed{Requirement: toRequirement(entry.Requirement), Source: entry.Source, Target: entry.Target, Err: err}
			}
		}
	}
	return nil
}

func toRequirement(r mountpolicy.Requirement) voiderr.MountRequirement {
	if r == mountpolicy.Required {
		return voiderr.MountRequired
	}
	return voiderr.MountOptional
}
