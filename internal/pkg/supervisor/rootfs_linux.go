package supervisor

import (
	"os"
	"path/filepath"

	"github.com/voidbox/voidbox/internal/pkg/installdb"
	"github.com/voidbox/voidbox/internal/pkg/overlay"
	"github.com/voidbox/voidbox/internal/pkg/paths"
	"github.com/voidbox/voidbox/internal/pkg/vlog"
)

// depsResolver implements overlay.Resolver over the on-disk deps layer
// layout from internal/pkg/paths.
type depsResolver struct{}

func (depsResolver) DepsRootfs(depsID string) (string, bool) {
	rootfs := paths.DepsRootfsDir(depsID)
	_, err := os.Stat(filepath.Join(rootfs, "etc", "os-release"))
	return rootfs, err == nil
}

func (depsResolver) DepsUpper(depsID string) string { return paths.DepsUpperDir(depsID) }
func (depsResolver) DepsWork(depsID string) string  { return paths.DepsWorkDir(depsID) }

// materializeRootfs mounts cfg's rootfs, preferring the overlay-backed
// flow (base.json present) and falling back to a legacy bind-mount of a
// pre-existing flat tree when base.json is absent (the decided Open
// Question: trust base.json's presence over inspecting the tree itself).
func materializeRootfs(cfg Config) error {
	info, err := installdb.ReadBaseInfo(cfg.Slug)
	if err != nil {
		return err
	}

	if info == nil {
		if _, statErr := os.Stat(filepath.Join(cfg.Rootfs, "etc", "os-release")); statErr == nil {
			vlog.Debugf("no base.json for %s, treating rootfs as legacy", cfg.Slug)
			return overlay.LegacyBindFallback(cfg.Rootfs, cfg.Rootfs)
		}
		return overlay.LegacyBindFallback(cfg.Rootfs, cfg.Rootfs)
	}

	spec := overlay.Spec{
		Target: cfg.Rootfs,
		Base:   cfg.BaseDir,
		DepsID: info.DepsID,
		Upper:  paths.AppUpperDir(cfg.Slug),
		Work:   paths.AppWorkDir(cfg.Slug),
	}
	return overlay.Mount(spec, depsResolver{})
}
