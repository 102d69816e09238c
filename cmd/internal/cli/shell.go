package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var dev bool
	shellCmd := &cobra.Command{
		Use:   "shell <slug>",
		Short: "Open an interactive shell inside an installed app's container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shellBin := os.Getenv("SHELL")
			if shellBin == "" {
				shellBin = "/bin/bash"
			}
			cfg, err := buildConfig(args[0], dev, shellBin, nil)
			if err != nil {
				return err
			}
			code, err := launch(cfg)
			if err != nil {
				return err
			}
			os.Exit(code)
			return nil
		},
	}
	shellCmd.Flags().BoolVar(&dev, "dev", false, "grant developer-mode host access for this shell")
	rootCmd.AddCommand(shellCmd)
}
