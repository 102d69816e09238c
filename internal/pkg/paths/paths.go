// Package paths is the single source of truth mapping logical identifiers
// (app slug, base id, deps id) to on-disk locations under
// $XDG_DATA_HOME/voidbox/. Every other component asks this package for a
// path rather than joining strings itself.
package paths

import (
	"os"
	"path/filepath"
)

const AppName = "voidbox"

// DataDir returns $XDG_DATA_HOME/voidbox, falling back to
// $HOME/.local/share/voidbox when XDG_DATA_HOME is unset.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, AppName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", AppName)
}

func BasesDir() string { return filepath.Join(DataDir(), "bases") }

// BaseDir returns the cache directory for a given distro/version/arch
// triple, e.g. bases/ubuntu-24.04-amd64.
func BaseDir(distro, version, arch string) string {
	return filepath.Join(BasesDir(), distro+"-"+version+"-"+arch)
}

func DepsDir() string { return filepath.Join(DataDir(), "deps") }

func DepsLayerDir(depsID string) string { return filepath.Join(DepsDir(), depsID) }
func DepsRootfsDir(depsID string) string { return filepath.Join(DepsLayerDir(depsID), "rootfs") }
func DepsUpperDir(depsID string) string  { return filepath.Join(DepsLayerDir(depsID), "layer") }
func DepsWorkDir(depsID string) string   { return filepath.Join(DepsLayerDir(depsID), "work") }

func AppsDir() string { return filepath.Join(DataDir(), "apps") }

func AppDir(slug string) string { return filepath.Join(AppsDir(), slug) }

func AppRootfsDir(slug string) string { return filepath.Join(AppDir(slug), "rootfs") }
func AppUpperDir(slug string) string  { return filepath.Join(AppDir(slug), "layer") }
func AppWorkDir(slug string) string   { return filepath.Join(AppDir(slug), "work") }
func AppBaseInfoPath(slug string) string {
	return filepath.Join(AppDir(slug), "base.json")
}

// AppManifestPath mirrors the base.json co-location (apps/<slug>/manifest.toml).
func AppManifestPath(slug string) string {
	return filepath.Join(AppDir(slug), "manifest.toml")
}

func ManifestsDir() string { return filepath.Join(DataDir(), "manifests") }
func ManifestPath(slug string) string {
	return filepath.Join(ManifestsDir(), slug+".toml")
}

func SettingsDir() string { return filepath.Join(DataDir(), "settings") }
func SettingsPath(slug string) string {
	return filepath.Join(SettingsDir(), slug+".toml")
}

func IconsDir() string { return filepath.Join(DataDir(), "icons") }
func IconPath(slug string) string {
	return filepath.Join(IconsDir(), slug+".png")
}

func DesktopDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "applications")
}

func DesktopEntryPath(slug string) string {
	return filepath.Join(DesktopDir(), AppName+"-"+slug+".desktop")
}

func BinDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "bin")
}

func InstallPath() string { return filepath.Join(BinDir(), AppName) }

func DatabasePath() string { return filepath.Join(DataDir(), "installed.json") }

// EnsureDirs creates every directory this package hands out paths under.
func EnsureDirs() error {
	dirs := []string{
		DataDir(), BasesDir(), DepsDir(), AppsDir(), ManifestsDir(),
		SettingsDir(), IconsDir(), DesktopDir(), BinDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
