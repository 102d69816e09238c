package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/supervisor"
)

// internal-run <rootfs> <cmd> -- <args...> is the minimal, permission-free
// launch path: namespace entry, bare proc/sys/dev/tmp mounts, pivot, exec.
// It is never invoked directly by a user — only by the deps-layer builder
// re-execing itself to run an apt-get setup script (grounded on
// original_source/src/cli/install.rs's install_dependencies, which re-execs
// itself the same way).
func init() {
	cmd := &cobra.Command{
		Use:    "internal-run <rootfs> <cmd> -- <args...>",
		Hidden: true,
		Args:   cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootfs, target := args[0], args[1]
			var extra []string
			if len(args) > 2 {
				extra = args[2:]
			}
			code, err := supervisor.RunMinimal(rootfs, target, extra)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
			}
			os.Exit(code)
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
