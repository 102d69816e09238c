package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/permissions"
	"github.com/voidbox/voidbox/internal/pkg/supervisor"
)

// internal-init <rootfs> <cmd> --permissions <json> -- <args...> runs the
// full launch sequence (namespaces, rootfs materialization, permission
// mounts, identity masquerade, pivot, environment, bridge shims, exec). It
// is only ever reached via supervisor.Native's self-reexec in native mode;
// the rest of supervisor.Config crosses that boundary through the
// VOIDBOX_* environment variables Native sets alongside this argv.
func init() {
	var permJSON string
	cmd := &cobra.Command{
		Use:    "internal-init <rootfs> <cmd> -- <args...>",
		Hidden: true,
		Args:   cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rootfs, target := args[0], args[1]
			var extra []string
			if len(args) > 2 {
				extra = args[2:]
			}

			var perm permissions.Record
			if permJSON != "" {
				if err := json.Unmarshal([]byte(permJSON), &perm); err != nil {
					return fmt.Errorf("parsing --permissions: %w", err)
				}
			}

			uid, _ := strconv.Atoi(os.Getenv("VOIDBOX_UID"))
			gid, _ := strconv.Atoi(os.Getenv("VOIDBOX_GID"))

			cfg := supervisor.Config{
				Slug:     os.Getenv("VOIDBOX_SLUG"),
				Rootfs:   rootfs,
				BaseDir:  os.Getenv("VOIDBOX_BASE_DIR"),
				DepsID:   os.Getenv("VOIDBOX_DEPS_ID"),
				User:     os.Getenv("VOIDBOX_USER"),
				Home:     os.Getenv("VOIDBOX_HOME"),
				UID:      uid,
				GID:      gid,
				Cmd:      target,
				Args:     extra,
				Perm:     perm,
				Hostname: os.Getenv("VOIDBOX_HOSTNAME"),
			}

			code, err := supervisor.RunContainerFlow(cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
			}
			os.Exit(code)
			return nil
		},
	}
	cmd.Flags().StringVar(&permJSON, "permissions", "", "JSON-encoded permissions.Record for this launch")
	rootCmd.AddCommand(cmd)
}
