package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installer"
)

func init() {
	var purge bool
	cmd := &cobra.Command{
		Use:   "remove <slug>",
		Short: "Remove an installed app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := installer.Remove(args[0], purge); err != nil {
				return err
			}
			fmt.Printf("[voidbox] Removed %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&purge, "purge", false, "also remove manifest, settings, icon, and an orphaned deps layer")
	rootCmd.AddCommand(cmd)
}
