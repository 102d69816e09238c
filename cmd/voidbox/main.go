// Command voidbox is the single static binary that installs, launches,
// and sandboxes manifest-described desktop apps. Besides its normal CLI
// surface it supports "argv[0] launcher mode": a copy or symlink named
// void_<slug> installs itself, installs <slug> on first use, and runs it
// directly, without the caller ever typing a subcommand.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voidbox/voidbox/cmd/internal/cli"
	"github.com/voidbox/voidbox/internal/pkg/installdb"
	"github.com/voidbox/voidbox/internal/pkg/installer"
	"github.com/voidbox/voidbox/internal/pkg/manifest"
	"github.com/voidbox/voidbox/internal/pkg/paths"
)

const launcherPrefix = "void_"

func main() {
	if slug, ok := launcherSlug(); ok {
		os.Exit(runLauncher(slug))
	}
	os.Exit(cli.Execute())
}

// launcherSlug reports whether argv[0]'s basename identifies this
// invocation as a per-app launcher (e.g. "void_brave" -> "brave"), per
// spec.md §6's argv[0] launcher mode. It only applies when no subcommand
// was also given, since a real subcommand always wins.
func launcherSlug() (string, bool) {
	if len(os.Args) > 1 {
		return "", false
	}
	base := filepath.Base(os.Args[0])
	if !strings.HasPrefix(base, launcherPrefix) || base == launcherPrefix {
		return "", false
	}
	return strings.TrimPrefix(base, launcherPrefix), true
}

// runLauncher ensures the running binary is installed under
// $HOME/.local/bin/void_<slug> with a same-target symlink named <slug>,
// installs the app from its cached manifest on first use, and runs it.
func runLauncher(slug string) int {
	if err := ensureSelfInstalled(slug); err != nil {
		fmt.Fprintf(os.Stderr, "[voidbox] launcher self-install failed: %s\n", err)
	}

	if _, found, err := installdb.Find(slug); err != nil {
		fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
		return 1
	} else if !found {
		m, err := manifest.ParseFile(paths.ManifestPath(slug))
		if err != nil {
			fmt.Fprintf(os.Stderr, "[voidbox] %q has no cached manifest; run `voidbox install` first: %s\n", slug, err)
			return 1
		}
		selfExe, err := os.Executable()
		if err != nil {
			fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
			return 1
		}
		fmt.Printf("[voidbox] Installing %s...\n", m.App.DisplayName)
		if err := installer.Install(m, selfExe, false); err != nil {
			fmt.Fprintf(os.Stderr, "[voidbox] %s\n", err)
			return 1
		}
	}

	return cli.RunSlug(slug, os.Args[1:])
}

// ensureSelfInstalled copies the running executable to
// $HOME/.local/bin/void_<slug> (if not already there) and symlinks
// $HOME/.local/bin/<slug> to it, so future invocations of either name
// reach this binary without needing it on PATH under its build name.
func ensureSelfInstalled(slug string) error {
	current, err := os.Executable()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(paths.BinDir(), 0o755); err != nil {
		return err
	}

	launcherName := launcherPrefix + slug
	launcherPath := filepath.Join(paths.BinDir(), launcherName)
	if same, _ := sameFile(current, launcherPath); !same {
		if err := copyExecutable(current, launcherPath); err != nil {
			return err
		}
	}

	slugLink := filepath.Join(paths.BinDir(), slug)
	os.Remove(slugLink)
	return os.Symlink(launcherPath, slugLink)
}

func sameFile(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, nil
	}
	return os.SameFile(ai, bi), nil
}

func copyExecutable(src, dst string) error {
	content, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o755)
}
