// Package installer implements spec.md §4.11's Absent → Materialized
// transition: resolving a manifest, provisioning its base image and
// (optional) shared deps layer, fetching its binary into a writable
// overlay upper, and recording it in the install database. Grounded on
// original_source/src/cli/install.rs's install_app_from_manifest.
package installer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/voidbox/voidbox/internal/pkg/appfetch"
	"github.com/voidbox/voidbox/internal/pkg/basestore"
	"github.com/voidbox/voidbox/internal/pkg/depsbuilder"
	"github.com/voidbox/voidbox/internal/pkg/installdb"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

// Install materializes m under its slug (m.App.Name), refusing to
// overwrite an existing install unless force is set. selfExe is needed to
// re-exec into internal-run for deps-layer provisioning.
func Install(m *manifest.Manifest, selfExe string, force bool) error {
	return install(m, selfExe, force, func(layerDir string) (*appfetch.Result, error) {
		return appfetch.Fetch(m, layerDir)
	})
}

// InstallFromArchive materializes m the same way Install does, but fetches
// the app payload from a pre-extracted local archive (as produced by
// bundle.ExtractFromFile) instead of resolving m.Source.
func InstallFromArchive(m *manifest.Manifest, selfExe, archivePath, archiveExt string, force bool) error {
	return install(m, selfExe, force, func(layerDir string) (*appfetch.Result, error) {
		return appfetch.FetchFromArchive(m, archivePath, archiveExt, layerDir)
	})
}

func install(m *manifest.Manifest, selfExe string, force bool, fetch func(layerDir string) (*appfetch.Result, error)) error {
	slug := m.App.Name

	if _, found, err := installdb.Find(slug); err != nil {
		return err
	} else if found && !force {
		return &voiderr.AlreadyInstalled{Slug: slug}
	}

	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	if err := os.MkdirAll(paths.AppDir(slug), 0o755); err != nil {
		return err
	}

	distro, _ := splitRuntimeBase(m.Runtime.Base)
	arch := debianArch(firstOr(m.Runtime.Arch, "x86_64"))

	versionedBaseDir, baseVersion, err := resolveBase(distro, arch)
	if err != nil {
		return err
	}

	depsID, err := depsbuilder.EnsureDepsLayer(selfExe, versionedBaseDir, m.Dependencies.Packages)
	if err != nil {
		return err
	}
	m.Runtime.DepsID = depsID

	if err := installdb.WriteBaseInfo(slug, installdb.BaseInfo{
		Distro: distro, Arch: arch, Version: baseVersion, DepsID: depsID,
	}); err != nil {
		return err
	}

	layerDir := paths.AppUpperDir(slug)
	if err := os.MkdirAll(layerDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(paths.AppWorkDir(slug), 0o755); err != nil {
		return err
	}

	fetched, err := fetch(layerDir)
	if err != nil {
		return err
	}

	content, err := manifest.Marshal(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(paths.ManifestPath(slug), content, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(paths.AppManifestPath(slug), content, 0o644); err != nil {
		return err
	}

	version := m.App.Version
	if fetched.Version != "" {
		version = fetched.Version
	}

	return installdb.Upsert(manifest.InstalledApp{
		Name:         slug,
		DisplayName:  m.App.DisplayName,
		Version:      version,
		BaseVersion:  baseVersion,
		ManifestPath: paths.ManifestPath(slug),
	})
}

// Remove deletes an app's on-disk state (spec.md §4.11's Materialized →
// Absent transition), purging its deps layer if purge is set and it is
// the last referencing app.
func Remove(slug string, purge bool) error {
	if _, found, err := installdb.Find(slug); err != nil {
		return err
	} else if !found {
		return &voiderr.NotInstalled{Slug: slug}
	}

	base, err := installdb.ReadBaseInfo(slug)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(paths.AppDir(slug)); err != nil {
		return err
	}
	if err := installdb.Remove(slug); err != nil {
		return err
	}

	if purge {
		os.Remove(paths.ManifestPath(slug))
		os.Remove(paths.SettingsPath(slug))
		os.Remove(paths.IconPath(slug))
		os.Remove(paths.DesktopEntryPath(slug))
		if base != nil && base.DepsID != "" {
			if err := installdb.PruneDepsLayer(base.DepsID, slug); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveBase returns the on-disk base directory for (distro, arch),
// matching spec.md §6's versioned layout (bases/<distro>-<version>-<arch>).
// basestore.EnsureBase only learns the version as a side effect of
// extraction, so a fresh fetch lands in a staging directory first and is
// renamed into its versioned name; an already-cached versioned directory
// is reused directly without calling EnsureBase again.
func resolveBase(distro, arch string) (dir, version string, err error) {
	if dir, version, ok := findCachedVersionedBase(distro, arch); ok {
		return dir, version, nil
	}

	staging := paths.BaseDir(distro, "_staging", arch)
	version, err = basestore.EnsureBase(distro, arch, staging)
	if err != nil {
		return "", "", err
	}

	final := paths.BaseDir(distro, version, arch)
	if final == staging {
		return final, version, nil
	}
	os.RemoveAll(final)
	if err := os.Rename(staging, final); err != nil {
		return "", "", err
	}
	return final, version, nil
}

func findCachedVersionedBase(distro, arch string) (dir, version string, ok bool) {
	entries, err := os.ReadDir(paths.BasesDir())
	if err != nil {
		return "", "", false
	}
	prefix, suffix := distro+"-", "-"+arch
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		candidate := filepath.Join(paths.BasesDir(), name)
		if _, err := os.Stat(filepath.Join(candidate, "etc", "os-release")); err != nil {
			continue
		}
		version = strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		return candidate, version, true
	}
	return "", "", false
}

func splitRuntimeBase(base string) (distro, version string) {
	parts := strings.SplitN(base, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return base, ""
}

func firstOr(arches []string, fallback string) string {
	if len(arches) > 0 {
		return arches[0]
	}
	return fallback
}

// debianArch maps the manifest's uname-style arch (as spec.md's GLOSSARY
// and original's manifest examples use, e.g. "x86_64") to the Debian
// architecture name the Ubuntu base tarballs are published under.
func debianArch(arch string) string {
	switch arch {
	case "x86_64", "amd64":
		return "amd64"
	case "aarch64", "arm64":
		return "arm64"
	default:
		return arch
	}
}
