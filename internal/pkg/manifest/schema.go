// Package manifest defines the app manifest schema and its TOML
// (de)serialization, grounded on the original voidbox manifest shape
// (app/source/runtime/dependencies/binary/desktop/permissions sections).
package manifest

import "github.com/voidbox/voidbox/internal/pkg/permissions"

// Manifest is the complete app manifest (manifests/<slug>.toml).
type Manifest struct {
	App          AppInfo         `toml:"app"`
	Source       SourceConfig    `toml:"source"`
	Runtime      RuntimeConfig   `toml:"runtime"`
	Dependencies DependencyConfig `toml:"dependencies"`
	Binary       BinaryConfig    `toml:"binary"`
	Desktop      DesktopConfig   `toml:"desktop"`
	Permissions  permissions.Record `toml:"permissions"`
}

// AppInfo carries the app's stable slug, display name, and version.
type AppInfo struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	Description string `toml:"description"`
	Version     string `toml:"version"`
	License     string `toml:"license"`
}

// SourceKind enumerates the three ways a manifest may point at its payload.
type SourceKind string

const (
	SourceGithub SourceKind = "github"
	SourceDirect SourceKind = "direct"
	SourceLocal  SourceKind = "local"
)

// SourceConfig is a tagged union over the three source kinds. Only the
// fields relevant to Type are expected to be populated; this mirrors the
// original's internally-tagged enum without needing Go tagged-union sugar.
type SourceConfig struct {
	Type SourceKind `toml:"type"`

	// github
	Owner         string `toml:"owner"`
	Repo          string `toml:"repo"`
	AssetPattern  string `toml:"asset_pattern"`
	AssetOS       string `toml:"asset_os"`
	AssetArch     string `toml:"asset_arch"`
	AssetExtension string `toml:"asset_extension"`

	// direct
	URL        string `toml:"url"`
	VersionURL string `toml:"version_url"`

	// local
	Path string `toml:"path"`
}

// RuntimeConfig names the base distribution image an app's rootfs is built
// from and which architectures it is offered for.
type RuntimeConfig struct {
	Base string   `toml:"base"`
	Arch []string `toml:"arch"`
	// DepsID, when set, names a shared base+packages overlay this app's
	// rootfs is layered on top of (see paths.DepsLayerDir).
	DepsID string `toml:"deps_id"`
}

// DependencyConfig names apt packages to be installed into the deps layer.
type DependencyConfig struct {
	Packages []string `toml:"packages"`
}

// BinaryConfig names the target executable invoked at launch.
type BinaryConfig struct {
	Name       string   `toml:"name"`
	Path       string   `toml:"path"`
	Args       []string `toml:"args"`
	InstallDir string   `toml:"install_dir"`
}

// DesktopConfig feeds desktop-entry generation, an external collaborator;
// voidbox's core only carries the fields through unmodified.
type DesktopConfig struct {
	Categories []string `toml:"categories"`
	WMClass    string   `toml:"wm_class"`
	Icon       string   `toml:"icon"`
	MimeTypes  []string `toml:"mime_types"`
	Keywords   []string `toml:"keywords"`
}

// DefaultRuntime matches the original's Default impl: ubuntu:24.04 on
// x86_64.
func DefaultRuntime() RuntimeConfig {
	return RuntimeConfig{Base: "ubuntu:24.04", Arch: []string{"x86_64"}}
}

// ArchiveType is the detected archive format of a bundle's payload.
type ArchiveType int

const (
	ArchiveZip ArchiveType = iota
	ArchiveTarGz
	ArchiveTarXz
	ArchiveTarZst
)

func (a ArchiveType) Extension() string {
	switch a {
	case ArchiveTarGz:
		return ".tar.gz"
	case ArchiveTarXz:
		return ".tar.xz"
	case ArchiveTarZst:
		return ".tar.zst"
	default:
		return ".zip"
	}
}

// ArchiveTypeFromExtension classifies a dotless or dotted extension string.
func ArchiveTypeFromExtension(ext string) (ArchiveType, bool) {
	switch ext {
	case "zip", ".zip":
		return ArchiveZip, true
	case "tar.gz", ".tar.gz", "tgz", ".tgz":
		return ArchiveTarGz, true
	case "tar.xz", ".tar.xz", "txz", ".txz":
		return ArchiveTarXz, true
	case "tar.zst", ".tar.zst", "tzst", ".tzst":
		return ArchiveTarZst, true
	default:
		return ArchiveZip, false
	}
}

// InstalledApp is the per-app record kept in installed.json (paths.DatabasePath),
// following the original's fuller shape rather than a thinner invention
// (see SPEC_FULL.md Supplemented Features).
type InstalledApp struct {
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	Version       string `json:"version,omitempty"`
	BaseVersion   string `json:"base_version,omitempty"`
	InstalledDate string `json:"installed_date,omitempty"`
	ManifestPath  string `json:"manifest_path,omitempty"`
}
