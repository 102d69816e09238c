// Package depsbuilder populates a shared deps layer (spec.md's Data Model:
// deps/<deps_id>/{rootfs,layer,work}) by running a package manager script
// against a base image, the way the teacher's own %post build scripts
// provision a container image. It is deliberately thin: the actual package
// install is an external apt-get invocation, not reproducible core logic,
// grounded on original_source/src/cli/install.rs's install_dependencies.
package depsbuilder

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voidbox/voidbox/internal/pkg/paths"
)

// ComputeDepsID derives a stable identifier for a package set so that
// apps sharing the same dependency list share the same deps layer.
func ComputeDepsID(packages []string) string {
	sorted := append([]string(nil), packages...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return hex.EncodeToString(sum[:])[:16]
}

// setupScriptTemplate mirrors install.rs's install_dependencies shell
// script closely: noninteractive apt-get against the base image, with
// dbus and icon/mime caches refreshed for desktop apps.
const setupScriptTemplate = `#!/bin/bash
export DEBIAN_FRONTEND=noninteractive
export PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin

mkdir -p /tmp /run /var/run /var/run/dbus /etc/apt/apt.conf.d
echo 'APT::Sandbox::User "root";' > /etc/apt/apt.conf.d/99sandbox

apt-get update -qq
apt-get install -y --no-install-recommends dbus dbus-user-session 2>&1 || true
apt-get install -y --no-install-recommends %s 2>&1 || true
dpkg --configure -a --force-confdef --force-confold --force-depends 2>/dev/null || true

if [ -d /usr/share/glib-2.0/schemas ]; then
    glib-compile-schemas /usr/share/glib-2.0/schemas 2>/dev/null || true
fi
gtk-update-icon-cache /usr/share/icons/hicolor 2>/dev/null || true
update-mime-database /usr/share/mime 2>/dev/null || true

apt-get clean
rm -rf /var/lib/apt/lists/*
`

// EnsureDepsLayer builds (or reuses) the deps layer for packages against
// baseDir, returning its deps_id. An empty packages list needs no layer
// and returns ("", nil). selfExe is the voidbox binary re-exec'd into the
// hidden internal-run subcommand to perform the privileged overlay mount
// and script run in an isolated mount namespace.
func EnsureDepsLayer(selfExe, baseDir string, packages []string) (string, error) {
	if len(packages) == 0 {
		return "", nil
	}

	depsID := ComputeDepsID(packages)
	rootfsDir := paths.DepsRootfsDir(depsID)
	upperDir := paths.DepsUpperDir(depsID)
	workDir := paths.DepsWorkDir(depsID)

	// rootfsDir is only ever overlay-mounted inside the internal-run
	// subprocess's own new mount namespace (RunMinimal unshares it before
	// mounting), so it never shows a merged view here; the sentinel
	// for "already built" instead lives in upperDir, the one piece that
	// genuinely persists past that process's lifetime via overlay copy-up.
	builtMarker := filepath.Join(upperDir, ".voidbox-deps-built")
	if _, err := os.Stat(builtMarker); err == nil {
		return depsID, nil
	}
	for _, dir := range []string{rootfsDir, upperDir, workDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating deps layer directories: %w", err)
		}
	}

	// The script must land in upperDir, not rootfsDir: RunMinimal overlay-
	// mounts rootfsDir from (baseDir, upperDir, workDir) before running it,
	// which would otherwise shadow anything written directly into rootfsDir.
	scriptPath := filepath.Join(upperDir, "setup.sh")
	script := fmt.Sprintf(setupScriptTemplate, strings.Join(packages, " "))
	if err := os.WriteFile(scriptPath, []byte(script), 0o755); err != nil {
		return "", fmt.Errorf("writing deps setup script: %w", err)
	}

	cmd := exec.Command(selfExe, "internal-run", rootfsDir, "/bin/bash", "--", "/setup.sh")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		"VOIDBOX_DEPS_BASE="+baseDir,
		"VOIDBOX_DEPS_UPPER="+upperDir,
		"VOIDBOX_DEPS_WORK="+workDir,
	)
	// apt-get's exit status inside an unprivileged container commonly
	// reflects failures the caller cannot act on (systemd units that
	// refuse to start, etc); install continues regardless, matching the
	// original's "expected in container" note.
	_ = cmd.Run()

	if err := os.WriteFile(builtMarker, nil, 0o644); err != nil {
		return "", fmt.Errorf("marking deps layer built: %w", err)
	}
	return depsID, nil
}
