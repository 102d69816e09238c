package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installer"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/pkg/bundle"
)

func init() {
	bundleCmd := &cobra.Command{
		Use:   "bundle",
		Short: "Create or install self-extracting app bundles",
	}
	rootCmd.AddCommand(bundleCmd)

	var output string
	createCmd := &cobra.Command{
		Use:   "create <manifest> <archive>",
		Short: "Package a manifest and app archive into a self-extracting bundle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output
			if out == "" {
				out = "bundle.bin"
			}
			if err := bundle.Create(args[0], args[1], out); err != nil {
				return err
			}
			fmt.Printf("[voidbox] Wrote bundle to %s\n", out)
			return nil
		},
	}
	createCmd.Flags().StringVarP(&output, "output", "o", "", "output path for the bundle (default bundle.bin)")
	bundleCmd.AddCommand(createCmd)

	var run bool
	installCmd := &cobra.Command{
		Use:   "install <file>",
		Short: "Install an app from a self-extracting bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extracted, err := bundle.ExtractFromFile(args[0])
			if err != nil {
				return err
			}
			defer extracted.Cleanup()

			m, err := manifest.Parse([]byte(extracted.ManifestContent))
			if err != nil {
				return err
			}
			selfExe, err := os.Executable()
			if err != nil {
				return err
			}
			fmt.Printf("[voidbox] Installing %s from bundle...\n", m.App.DisplayName)
			if err := installer.InstallFromArchive(m, selfExe, extracted.ArchivePath, extracted.ArchiveExt, true); err != nil {
				return err
			}
			fmt.Printf("[voidbox] Successfully installed %s!\n", m.App.DisplayName)

			if run {
				cfg, err := buildConfig(m.App.Name, false, "", nil)
				if err != nil {
					return err
				}
				code, err := launch(cfg)
				if err != nil {
					return err
				}
				os.Exit(code)
			}
			return nil
		},
	}
	installCmd.Flags().BoolVar(&run, "run", false, "launch the app immediately after installing")
	bundleCmd.AddCommand(installCmd)
}
