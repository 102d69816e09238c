package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installer"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
)

const maxManifestBytes = 10 * 1024 * 1024

func init() {
	var force bool
	cmd := &cobra.Command{
		Use:   "install <source>",
		Short: "Install an app from a manifest path, URL, or known slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := resolveManifest(args[0])
			if err != nil {
				return err
			}
			selfExe, err := os.Executable()
			if err != nil {
				return err
			}
			fmt.Printf("[voidbox] Installing %s...\n", m.App.DisplayName)
			if err := installer.Install(m, selfExe, force); err != nil {
				return err
			}
			fmt.Printf("[voidbox] Successfully installed %s!\n", m.App.DisplayName)
			fmt.Printf("[voidbox] Run with: voidbox run %s\n", m.App.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinstall even if already installed")
	rootCmd.AddCommand(cmd)
}

// resolveManifest parses source as an HTTP(S) URL, a local manifest
// file, or (failing both) a slug already known under manifests/<slug>.toml
// — mirroring install_app's three-way source dispatch.
func resolveManifest(source string) (*manifest.Manifest, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return parseManifestURL(source)
	}
	if _, err := os.Stat(source); err == nil {
		return manifest.ParseFile(source)
	}
	return manifest.ParseFile(paths.ManifestPath(source))
}

func parseManifestURL(url string) (*manifest.Manifest, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching manifest %s: unexpected status %s", url, resp.Status)
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", url, err)
	}
	return manifest.Parse(content)
}
