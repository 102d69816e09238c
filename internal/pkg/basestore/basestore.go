// Package basestore implements spec.md §4.1 (Base Image Store): fetching
// and caching a distribution base rootfs (currently Ubuntu) used as the
// bottom overlay layer for every app.
package basestore

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/docker/go-units"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

const (
	userAgent = "voidbox"

	// maxDownloadBytes caps a base image download; the real ubuntu-base
	// tarballs run 60-80 MiB, so 1 GiB is generous headroom against a
	// misbehaving or malicious index, not a realistic size.
	maxDownloadBytes = 1 << 30

	ubuntuReleasesURL = "https://cdimage.ubuntu.com/ubuntu-base/releases/"
)

var versionDirPattern = regexp.MustCompile(`^\d+(\.\d+)+/$`)

// EnsureBase returns the version of the base image cached in baseDir for
// (distro, arch), downloading and extracting a fresh image if the cache is empty or was
// left mid-extraction by a prior failed attempt.
func EnsureBase(distro, arch, baseDir string) (version string, err error) {
	if osReleaseExists(baseDir) {
		v, err := readCachedVersion(baseDir)
		if err == nil && v != "" {
			return v, nil
		}
		return "cached", nil
	}

	if err := os.RemoveAll(baseDir); err != nil {
		return "", fmt.Errorf("clearing partial base dir: %w", err)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("creating base dir: %w", err)
	}

	switch distro {
	case "ubuntu":
		version, url, rerr := resolveUbuntuBase(arch)
		if rerr != nil {
			return "", &voiderr.BaseResolutionFailed{Distro: distro, Arch: arch, Reason: rerr.Error()}
		}
		if err := fetchAndExtract(url, baseDir); err != nil {
			return "", &voiderr.BaseResolutionFailed{Distro: distro, Arch: arch, Reason: err.Error()}
		}
		if err := copyResolvConf(baseDir); err != nil {
			vlog.Warningf("copying resolv.conf into base image: %s", err)
		}
		return version, nil
	default:
		return "", &voiderr.BaseResolutionFailed{Distro: distro, Arch: arch, Reason: "unsupported distro"}
	}
}

func osReleaseExists(baseDir string) bool {
	_, err := os.Stat(filepath.Join(baseDir, "etc", "os-release"))
	return err == nil
}

func readCachedVersion(baseDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, "etc", "os-release"))
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "VERSION_ID=") {
			return strings.Trim(strings.TrimPrefix(line, "VERSION_ID="), `"`), nil
		}
	}
	return "", fmt.Errorf("VERSION_ID not found")
}

// resolveUbuntuBase scans the Ubuntu releases index, trying versions
// newest-first until one has a matching ubuntu-base asset for arch.
func resolveUbuntuBase(arch string) (version, url string, err error) {
	body, err := getString(ubuntuReleasesURL)
	if err != nil {
		return "", "", fmt.Errorf("fetching releases index: %w", err)
	}

	versions := parseVersionDirs(body)
	if len(versions) == 0 {
		return "", "", fmt.Errorf("no Ubuntu versions found in releases index")
	}
	sortVersionsAscending(versions)

	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		releaseURL := ubuntuReleasesURL + v + "/release/"
		releaseBody, err := getString(releaseURL)
		if err != nil {
			continue
		}

		pattern := fmt.Sprintf("ubuntu-base-%s-base-%s.tar.gz", v, arch)
		if strings.Contains(releaseBody, pattern) {
			return v, releaseURL + pattern, nil
		}

		basePattern := twoComponentPrefix(v)
		altPattern := fmt.Sprintf("ubuntu-base-%s-base-%s.tar.gz", basePattern, arch)
		if strings.Contains(releaseBody, altPattern) {
			return v, releaseURL + altPattern, nil
		}
	}

	return "", "", fmt.Errorf("no Ubuntu base image asset found for arch %s", arch)
}

func twoComponentPrefix(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) <= 2 {
		return version
	}
	return strings.Join(parts[:2], ".")
}

func parseVersionDirs(html string) []string {
	var versions []string
	for _, m := range regexp.MustCompile(`href="([^"]+)"`).FindAllStringSubmatch(html, -1) {
		dir := m[1]
		if versionDirPattern.MatchString(dir) {
			versions = append(versions, strings.TrimSuffix(dir, "/"))
		}
	}
	return versions
}

func sortVersionsAscending(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) < 0
	})
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}

func getString(url string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s for %s", resp.Status, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// fetchAndExtract downloads url into a temp file under destDir, shows a
// progress bar sized from Content-Length (via docker/go-units for the
// human-readable label), then extracts the tarball directly into destDir
// and removes the archive. Go's archive/tar already tolerates trailing
// null-block padding after the real end-of-archive marker, the same
// tolerance the original's "ignore_zeros" tar option exists for.
func fetchAndExtract(url, destDir string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return &voiderr.DownloadFailed{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &voiderr.DownloadFailed{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	archivePath := filepath.Join(destDir, "base.tar.gz.tmp")
	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer os.Remove(archivePath)

	totalSize := resp.ContentLength
	var body io.Reader = io.LimitReader(resp.Body, maxDownloadBytes)

	if totalSize > 0 {
		progress := mpb.New(mpb.WithWidth(40))
		bar := progress.AddBar(totalSize,
			mpb.PrependDecorators(decor.Name("voidbox: downloading "+units.HumanSize(float64(totalSize)))),
			mpb.AppendDecorators(decor.Percentage()),
		)
		body = bar.ProxyReader(body)
		defer progress.Wait()
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return &voiderr.DownloadFailed{URL: url, Err: err}
	}
	out.Close()

	return extractTarGz(archivePath, destDir)
}

func extractTarGz(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		target, err := securejoin.SecureJoin(destDir, hdr.Name)
		if err != nil {
			return fmt.Errorf("unsafe tar entry %q: %w", hdr.Name, err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		case tar.TypeSymlink:
			os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				vlog.Debugf("skipping symlink %s -> %s: %s", target, hdr.Linkname, err)
			}
		}
	}
	return nil
}

func copyResolvConf(baseDir string) error {
	content, err := os.ReadFile("/etc/resolv.conf")
	if err != nil {
		content = []byte("nameserver 8.8.8.8\n")
	}
	etcDir := filepath.Join(baseDir, "etc")
	if err := os.MkdirAll(etcDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(etcDir, "resolv.conf"), content, 0o644)
}
