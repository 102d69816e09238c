package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installer"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

func init() {
	cmd := &cobra.Command{
		Use:   "update <slug>",
		Short: "Reinstall an app against its current manifest to pick up app or base changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			if _, err := os.Stat(paths.ManifestPath(slug)); os.IsNotExist(err) {
				return &voiderr.NotInstalled{Slug: slug}
			}
			m, err := manifest.ParseFile(paths.ManifestPath(slug))
			if err != nil {
				return err
			}
			selfExe, err := os.Executable()
			if err != nil {
				return err
			}
			fmt.Printf("[voidbox] Updating %s...\n", m.App.DisplayName)
			if err := installer.Install(m, selfExe, true); err != nil {
				return err
			}
			fmt.Printf("[voidbox] Updated %s\n", m.App.DisplayName)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
