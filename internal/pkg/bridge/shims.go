package bridge

import (
	"fmt"
	"os"
	"path/filepath"
)

const ShimDir = ".voidbox/bin"

// shimScript is the body shared by both shims; verb is "SUDO" or "EXEC".
// /dev/tcp/... is a bash-only redirection, so the shebang is bash, not sh.
const shimScript = `#!/bin/bash
exec 3<>/dev/tcp/127.0.0.1/%d
echo "%s" >&3
echo "%s $*" >&3
cat <&0 >&3 &
cat_pid=$!
trap 'kill "$cat_pid" 2>/dev/null' EXIT
cat <&3
`

// InstallShims writes the sudo and host-exec bridge shims into
// <rootfs>/.voidbox/bin, per spec.md §4.9. Called only when a bridge
// (native mode) is active for this launch.
func InstallShims(rootfs string, port int, token string) error {
	dir := filepath.Join(rootfs, ShimDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	shims := map[string]string{
		"sudo":      "SUDO",
		"host-exec": "EXEC",
	}
	for name, verb := range shims {
		content := fmt.Sprintf(shimScript, port, token, verb)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return fmt.Errorf("write shim %s: %w", path, err)
		}
	}
	return nil
}
