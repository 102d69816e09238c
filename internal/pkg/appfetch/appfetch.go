// Package appfetch resolves an app manifest's source configuration
// (github/direct/local) into an installed copy of its binary under an
// app's writable overlay layer, grounded on
// original_source/src/cli/install.rs's install_app_binary and
// create_binary_symlink. GitHub release discovery is implemented as a
// best-effort convenience, not the full original UX (desktop-entry
// wiring, update polling) which SPEC_FULL.md treats as an external
// collaborator.
package appfetch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

const maxDownloadBytes = 1_000_000_000
const userAgent = "voidbox"

// Result carries the installed binary's location relative to the app's
// rootfs, and the version actually fetched (empty if unknown, e.g. a
// local or "latest" direct source).
type Result struct {
	ContainerBinaryPath string // e.g. /opt/myapp/bin/myapp
	Version             string
}

// Fetch resolves m's source into layerDir (the app's writable overlay
// upper) and symlinks the named binary under usr/bin, returning where it
// landed.
func Fetch(m *manifest.Manifest, layerDir string) (*Result, error) {
	installDir := m.Binary.InstallDir
	if installDir == "" {
		installDir = m.App.Name
	}
	targetDir := filepath.Join(layerDir, "opt", installDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, err
	}

	var version string
	switch m.Source.Type {
	case manifest.SourceLocal:
		if err := copyLocal(m.Source.Path, targetDir); err != nil {
			return nil, err
		}
	case manifest.SourceDirect:
		url := m.Source.URL
		if err := downloadAndExtract(url, targetDir); err != nil {
			return nil, err
		}
	case manifest.SourceGithub:
		resolvedVersion, url, err := resolveGithubAsset(m.Source)
		if err != nil {
			return nil, err
		}
		version = resolvedVersion
		if err := downloadAndExtract(url, targetDir); err != nil {
			return nil, err
		}
	default:
		return nil, &voiderr.ManifestInvalid{Reason: "unknown source.type: " + string(m.Source.Type)}
	}

	containerPath, err := symlinkBinary(layerDir, targetDir, m.Binary.Name)
	if err != nil {
		return nil, err
	}
	return &Result{ContainerBinaryPath: containerPath, Version: version}, nil
}

// FetchFromArchive extracts a pre-fetched archive (already on disk, as
// from an extracted bundle) into layerDir and symlinks the named binary,
// skipping the source-resolution/download steps Fetch performs for a
// manifest's declared source.
func FetchFromArchive(m *manifest.Manifest, archivePath, archiveExt, layerDir string) (*Result, error) {
	installDir := m.Binary.InstallDir
	if installDir == "" {
		installDir = m.App.Name
	}
	targetDir := filepath.Join(layerDir, "opt", installDir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, err
	}

	archiveType, _ := manifest.ArchiveTypeFromExtension(archiveExt)
	if err := extractArchive(archivePath, archiveType, targetDir); err != nil {
		return nil, err
	}

	containerPath, err := symlinkBinary(layerDir, targetDir, m.Binary.Name)
	if err != nil {
		return nil, err
	}
	return &Result{ContainerBinaryPath: containerPath}, nil
}

func copyLocal(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat local source %s: %w", src, err)
	}
	if info.IsDir() {
		return copyDirAll(src, dst)
	}
	return copyFile(src, filepath.Join(dst, filepath.Base(src)), info.Mode())
}

func copyDirAll(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

func downloadAndExtract(url, targetDir string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return &voiderr.DownloadFailed{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &voiderr.DownloadFailed{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	archivePath := filepath.Join(targetDir, "..", filepath.Base(targetDir)+"_download"+extensionFromURL(url))
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(resp.Body, maxDownloadBytes)); err != nil {
		out.Close()
		os.Remove(archivePath)
		return &voiderr.DownloadFailed{URL: url, Err: err}
	}
	out.Close()
	defer os.Remove(archivePath)

	archiveType, _ := manifest.ArchiveTypeFromExtension(extensionFromURL(url))
	return extractArchive(archivePath, archiveType, targetDir)
}

func extensionFromURL(url string) string {
	base := filepath.Base(url)
	if idx := strings.Index(base, "?"); idx >= 0 {
		base = base[:idx]
	}
	return detectExt(base)
}

func detectExt(name string) string {
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return ".tar.gz"
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		return ".tar.xz"
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		return ".tar.zst"
	default:
		return ".zip"
	}
}

func extractArchive(archivePath string, archiveType manifest.ArchiveType, targetDir string) error {
	switch archiveType {
	case manifest.ArchiveZip:
		return extractZip(archivePath, targetDir)
	case manifest.ArchiveTarGz:
		return extractTarGz(archivePath, targetDir)
	default:
		return fmt.Errorf("appfetch: unsupported archive type for extraction (xz/zstd not wired; no pack example carries a decoder for them)")
	}
}

func extractZip(archivePath, targetDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		outPath, err := securejoin.SecureJoin(targetDir, f.Name)
		if err != nil {
			return fmt.Errorf("appfetch: unsafe zip entry %q: %w", f.Name, err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(out, rc)
		out.Close()
		rc.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}

func extractTarGz(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		outPath, err := securejoin.SecureJoin(targetDir, hdr.Name)
		if err != nil {
			return fmt.Errorf("appfetch: unsafe tar entry %q: %w", hdr.Name, err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(outPath, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			_, copyErr := io.Copy(out, tr)
			out.Close()
			if copyErr != nil {
				return copyErr
			}
		}
	}
}

// symlinkBinary walks targetDir (3 levels deep, like the original's
// WalkDir::max_depth(3)) for a file named binaryName and symlinks it at
// usr/bin/<binaryName> inside the app's layer, relative to the eventual
// container root.
func symlinkBinary(layerDir, targetDir, binaryName string) (string, error) {
	var found string
	depthLimit := 3
	base := filepath.Clean(targetDir)
	err := filepath.Walk(targetDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if info.IsDir() {
			rel, _ := filepath.Rel(base, path)
			if rel != "." && strings.Count(rel, string(filepath.Separator))+1 > depthLimit {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Base(path) == binaryName {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("binary %q not found in installed archive", binaryName)
	}

	rel, err := filepath.Rel(layerDir, found)
	if err != nil {
		return "", err
	}
	containerPath := "/" + filepath.ToSlash(rel)

	binDir := filepath.Join(layerDir, "usr", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", err
	}
	linkPath := filepath.Join(binDir, binaryName)
	os.Remove(linkPath)
	if err := os.Symlink(containerPath, linkPath); err != nil {
		return "", err
	}
	return containerPath, nil
}

// githubRelease and githubAsset mirror the two JSON shapes the original
// deserialized with serde from the GitHub releases API.
type githubRelease struct {
	TagName string        `json:"tag_name"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

func resolveGithubAsset(src manifest.SourceConfig) (version, url string, err error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", src.Owner, src.Repo)
	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", "", &voiderr.DownloadFailed{URL: apiURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", &voiderr.DownloadFailed{URL: apiURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var release githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxDownloadBytes)).Decode(&release); err != nil {
		return "", "", fmt.Errorf("decoding GitHub release: %w", err)
	}

	for _, asset := range release.Assets {
		if matchesAsset(asset.Name, src) {
			return release.TagName, asset.BrowserDownloadURL, nil
		}
	}
	return "", "", fmt.Errorf("no release asset matched os=%s arch=%s pattern=%q for %s/%s",
		src.AssetOS, src.AssetArch, src.AssetPattern, src.Owner, src.Repo)
}

func matchesAsset(name string, src manifest.SourceConfig) bool {
	if src.AssetPattern != "" {
		return strings.Contains(name, src.AssetPattern)
	}
	if src.AssetOS != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(src.AssetOS)) {
		return false
	}
	if src.AssetArch != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(src.AssetArch)) {
		return false
	}
	if src.AssetExtension != "" {
		return strings.HasSuffix(name, src.AssetExtension)
	}
	return true
}
