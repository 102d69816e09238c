package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installdb"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

func init() {
	cmd := &cobra.Command{
		Use:   "info <slug>",
		Short: "Show details about an installed app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]
			app, found, err := installdb.Find(slug)
			if err != nil {
				return err
			}
			if !found {
				return &voiderr.NotInstalled{Slug: slug}
			}
			base, err := installdb.ReadBaseInfo(slug)
			if err != nil {
				return err
			}
			fmt.Printf("Name:          %s\n", app.Name)
			fmt.Printf("Display name:  %s\n", app.DisplayName)
			fmt.Printf("Version:       %s\n", app.Version)
			fmt.Printf("Installed:     %s\n", app.InstalledDate)
			if base != nil {
				fmt.Printf("Base:          %s %s (%s)\n", base.Distro, base.Version, base.Arch)
				if base.DepsID != "" {
					fmt.Printf("Deps layer:    %s\n", base.DepsID)
				}
			}
			fmt.Printf("Manifest:      %s\n", app.ManifestPath)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
