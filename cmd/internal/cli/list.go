package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installdb"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := installdb.Load()
			if err != nil {
				return err
			}
			if len(apps) == 0 {
				fmt.Println("[voidbox] No apps installed")
				return nil
			}
			for _, a := range apps {
				fmt.Printf("%-20s %-10s %s\n", a.Name, a.Version, a.DisplayName)
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
