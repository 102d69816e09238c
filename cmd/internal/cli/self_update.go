package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags; left at "dev" otherwise.
var version = "dev"

const selfUpdateOwner = "voidbox"
const selfUpdateRepo = "voidbox"

func init() {
	var force bool
	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Check for and install a newer voidbox release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinstall even if already on the latest version")
	rootCmd.AddCommand(cmd)
}

type selfUpdateAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

type selfUpdateRelease struct {
	TagName string             `json:"tag_name"`
	Assets  []selfUpdateAsset  `json:"assets"`
}

// runSelfUpdate checks the latest GitHub release and, if its tag differs
// from the running version (or --force), downloads the matching asset over the
// current executable. This mirrors the original's self_update crate usage,
// minus its changelog/prompt UX (spec.md treats self-update logistics as an
// external collaborator, not core).
func runSelfUpdate(force bool) error {
	fmt.Print("[voidbox] Checking for updates... ")
	rel, err := fetchLatestSelfUpdateRelease()
	if err != nil {
		fmt.Println("failed")
		return err
	}
	if rel.TagName == version && !force {
		fmt.Println("up to date")
		return nil
	}
	fmt.Printf("found %s\n", rel.TagName)

	assetName := fmt.Sprintf("voidbox-%s-%s", runtime.GOOS, runtime.GOARCH)
	var assetURL string
	for _, a := range rel.Assets {
		if a.Name == assetName {
			assetURL = a.BrowserDownloadURL
			break
		}
	}
	if assetURL == "" {
		return fmt.Errorf("no release asset matching %s", assetName)
	}

	selfExe, err := os.Executable()
	if err != nil {
		return err
	}
	return replaceBinary(selfExe, assetURL)
}

func fetchLatestSelfUpdateRelease() (*selfUpdateRelease, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", selfUpdateOwner, selfUpdateRepo)
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github releases: unexpected status %s", resp.Status)
	}
	var rel selfUpdateRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// replaceBinary downloads url into a temp file beside dst and renames it
// over dst, preserving dst's mode bits.
func replaceBinary(dst, url string) error {
	info, err := os.Stat(dst)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".voidbox-update-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, info.Mode()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return err
	}
	fmt.Println("[voidbox] Updated. Restart voidbox to use the new version.")
	return nil
}
