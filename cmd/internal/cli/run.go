package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/voidbox/voidbox/internal/pkg/installdb"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
	"github.com/voidbox/voidbox/internal/pkg/permissions"
	"github.com/voidbox/voidbox/internal/pkg/settings"
	"github.com/voidbox/voidbox/internal/pkg/supervisor"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

func init() {
	var dev bool
	var url string
	runCmd := &cobra.Command{
		Use:   "run <slug> [-- args...]",
		Short: "Run an installed app",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug, extra := args[0], args[1:]
			if url != "" {
				extra = append(extra, url)
			}
			cfg, err := buildConfig(slug, dev, "", extra)
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
	runCmd.Flags().BoolVar(&dev, "dev", false, "grant developer-mode host access for this launch")
	runCmd.Flags().StringVar(&url, "url", "", "URL to pass through to the app")
	rootCmd.AddCommand(runCmd)
}

// RunSlug builds and launches an installed app's config directly,
// bypassing cobra's flag parsing; used by argv[0] launcher mode, which
// forwards its own trailing args straight through to the app.
func RunSlug(slug string, extraArgs []string) int {
	cfg, err := buildConfig(slug, false, "", extraArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
		return voiderr.ExitCode(voiderr.KindOf(err))
	}
	code, err := launch(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
		return voiderr.ExitCode(voiderr.KindOf(err))
	}
	return code
}

// buildConfig assembles a launch Config from an installed app's manifest,
// base descriptor, and settings override. cmdOverride replaces the
// manifest's declared binary (used by `shell`); a non-empty value wins.
func buildConfig(slug string, devOverride bool, cmdOverride string, extraArgs []string) (*supervisor.Config, error) {
	if _, found, err := installdb.Find(slug); err != nil {
		return nil, err
	} else if !found {
		return nil, &voiderr.NotInstalled{Slug: slug}
	}

	m, err := manifest.ParseFile(paths.AppManifestPath(slug))
	if err != nil {
		return nil, err
	}

	// base may be nil for a legacy install (a flat rootfs tree with no
	// base.json); BaseDir/DepsID are then left empty and
	// materializeRootfs falls back to bind-mounting the existing tree.
	base, err := installdb.ReadBaseInfo(slug)
	if err != nil {
		return nil, err
	}

	override, err := settings.Load(slug)
	if err != nil {
		return nil, err
	}
	perm := permissions.Merge(m.Permissions, override)
	if devOverride {
		perm.DevMode = true
	}

	user := os.Getenv("USER")
	home, _ := os.UserHomeDir()
	hostname, _ := os.Hostname()

	cmdPath := cmdOverride
	if cmdPath == "" {
		cmdPath = m.Binary.Path
	}
	if cmdPath == "" {
		cmdPath = "/usr/bin/" + m.Binary.Name
	}
	args := append(append([]string{}, m.Binary.Args...), extraArgs...)

	var baseDir, depsID string
	if base != nil {
		baseDir = paths.BaseDir(base.Distro, base.Version, base.Arch)
		depsID = base.DepsID
	}

	return &supervisor.Config{
		Slug:     slug,
		Rootfs:   paths.AppRootfsDir(slug),
		BaseDir:  baseDir,
		DepsID:   depsID,
		User:     user,
		Home:     home,
		UID:      os.Getuid(),
		GID:      os.Getgid(),
		Cmd:      cmdPath,
		Args:     args,
		Perm:     perm,
		Hostname: hostname,
	}, nil
}

// launch dispatches to the standard in-process flow, or to native mode's
// bridge-plus-self-reexec flow (spec.md §4.7/§9: no fork before namespaces
// except to keep the bridge listener in the host network namespace).
func launch(cfg *supervisor.Config) (int, error) {
	if !cfg.Perm.NativeMode {
		return supervisor.RunContainerFlow(*cfg)
	}

	selfExe, err := os.Executable()
	if err != nil {
		return 1, err
	}
	permJSON, err := json.Marshal(cfg.Perm)
	if err != nil {
		return 1, err
	}

	argv := []string{"internal-init", cfg.Rootfs, cfg.Cmd, "--permissions", string(permJSON), "--"}
	argv = append(argv, cfg.Args...)

	extraEnv := []string{
		"VOIDBOX_SLUG=" + cfg.Slug,
		"VOIDBOX_BASE_DIR=" + cfg.BaseDir,
		"VOIDBOX_DEPS_ID=" + cfg.DepsID,
		"VOIDBOX_USER=" + cfg.User,
		"VOIDBOX_HOME=" + cfg.Home,
		"VOIDBOX_UID=" + strconv.Itoa(cfg.UID),
		"VOIDBOX_GID=" + strconv.Itoa(cfg.GID),
		"VOIDBOX_HOSTNAME=" + cfg.Hostname,
	}
	return supervisor.Native(selfExe, argv, extraEnv)
}
