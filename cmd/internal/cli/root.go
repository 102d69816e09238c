// Package cli wires voidbox's subcommands onto a cobra.Command tree,
// mirroring the teacher's cmd/apptainer + cmd/internal/cli split (one file
// per subcommand) without the teacher's own pkg/cmdline wrapper, which
// carries more flag-registration ceremony than voidbox's CLI surface needs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

var verbose bool

// rootCmd is voidbox's entry command; subcommand files append to it via
// init() in this package.
var rootCmd = &cobra.Command{
	Use:           "voidbox",
	Short:         "Run desktop apps in lightweight Linux sandboxes",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			vlog.SetLevel(vlog.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the command tree and returns the process exit code,
// printing a one-line "[voidbox] ..." diagnostic on failure (spec.md §7).
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
		return voiderr.ExitCode(voiderr.KindOf(err))
	}
	return 0
}
