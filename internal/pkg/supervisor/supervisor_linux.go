package supervisor

import (
	"os"
	"os/exec"
	"strconv"

	"github.com/voidbox/voidbox/internal/pkg/bridge"
	"github.com/voidbox/voidbox/internal/pkg/identity"
	"github.com/voidbox/voidbox/internal/pkg/mountpolicy"
	"github.com/voidbox/voidbox/internal/pkg/nsorchestrator"
	"github.com/voidbox/voidbox/internal/pkg/pivot"
	"github.com/voidbox/voidbox/internal/pkg/vlog"
)

// Init performs components 5→3→4→6→7 — namespace entry, rootfs materialization,
// permission mounts, identity masquerade (native only), and the pivot into
// the new root (spec.md §4.7, phases 1-6). After it returns successfully the
// calling process is running with cfg.Rootfs as "/".
func Init(cfg Config) error {
	if err := nsorchestrator.EnterUserNamespace(); err != nil {
		return err
	}
	if err := nsorchestrator.EnterContainerNamespaces(); err != nil {
		return err
	}

	if err := materializeRootfs(cfg); err != nil {
		return err
	}

	hostname := containerHostname
	if cfg.Perm.NativeMode {
		hostname = cfg.Hostname
	}

	entries := mountpolicy.Build(mountpolicy.Permissions{
		Home:       cfg.Perm.Home,
		Fonts:      cfg.Perm.Fonts,
		Themes:     cfg.Perm.Themes,
		DevMode:    cfg.Perm.DevMode,
		NativeMode: cfg.Perm.NativeMode,
	}, mountpolicy.EnvFromOS())
	if err := applyPermissionMounts(cfg.Rootfs, entries); err != nil {
		return err
	}

	if cfg.Perm.NativeMode {
		if err := identity.Masquerade(cfg.Rootfs, cfg.User, cfg.Home, 0, 0); err != nil {
			return err
		}
	}

	return pivot.Enter(cfg.Rootfs, hostname)
}

// FinishAndExec performs the remaining phases once the pivot has happened:
// environment setup, bridge shim installation, subreaper registration, and
// spawning the target command to completion (spec.md §4.7, phases 7-10).
func FinishAndExec(cmd string, args []string, native bool) (int, error) {
	applyEnvironment(native)

	if portStr := os.Getenv("VOIDBOX_BRIDGE_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil {
			token := os.Getenv("VOIDBOX_BRIDGE_TOKEN")
			if err := bridge.InstallShims("/", port, token); err != nil {
				vlog.Warningf("failed to install host bridge shims: %v", err)
			}
		}
	}

	if err := becomeSubreaper(); err != nil {
		vlog.Warningf("failed to become child subreaper: %v", err)
	}

	return spawnAndReap(cmd, args)
}

// RunContainerFlow runs the entire launch sequence in this process: it is
// used directly by the standard (non-native) flow, which per spec.md §4.7
// never forks before entering namespaces. Native mode instead goes through
// Native below, which forks once (to keep the bridge listener in the host
// network namespace) and lets the child run this same sequence via the
// internal-init subcommand.
func RunContainerFlow(cfg Config) (int, error) {
	if err := Init(cfg); err != nil {
		return 1, err
	}
	return FinishAndExec(cfg.Cmd, cfg.Args, cfg.Perm.NativeMode)
}

// Native starts the host bridge, then re-execs selfExe with argv (expected
// to be an `internal-init ...` invocation), passing the bridge port/token
// plus extraEnv through the environment, and waits for the child to
// finish. The host bridge stays alive in this (parent) process for the
// container's entire lifetime. extraEnv carries the rest of Config
// (rootfs/base dir/deps id/identity) the internal-init subcommand's
// documented grammar has no flags for, the same way bridge credentials
// already cross the self-reexec boundary.
func Native(selfExe string, argv []string, extraEnv []string) (int, error) {
	handle, err := bridge.Start()
	if err != nil {
		return 1, err
	}
	defer handle.Stop()

	cmd := exec.Command(selfExe, argv...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"VOIDBOX_BRIDGE_PORT="+strconv.Itoa(handle.Port()),
		"VOIDBOX_BRIDGE_TOKEN="+handle.Token(),
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	if err := cmd.Start(); err != nil {
		return 1, err
	}
	waitErr := cmd.Wait()
	return exitCodeOf(waitErr), nil
}
