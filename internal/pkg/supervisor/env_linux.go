package supervisor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/voidbox/voidbox/internal/pkg/hostbin"
)

const bridgeShimDir = "/.voidbox/bin"

// applyEnvironment sets the environment the target process inherits,
// per spec.md §4.10.
func applyEnvironment(native bool) {
	if native {
		os.Setenv("PATH", bridgeShimDir+":"+os.Getenv("PATH"))
	} else {
		os.Setenv("PATH", strings.Join([]string{
			"/usr/local/sbin", "/usr/local/bin", "/usr/sbin", "/usr/bin",
			"/sbin", "/bin", "/host/bin", "/host/local/bin", "/host/user/bin",
		}, ":"))
	}

	home := "/root"
	if user := os.Getenv("USER"); user != "" {
		candidate := filepath.Join("/home", user)
		if _, err := os.Stat(candidate); err == nil {
			home = candidate
		}
	}
	os.Setenv("HOME", home)

	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		relative := "/" + strings.TrimPrefix(runtimeDir, "/")
		os.Setenv("XDG_RUNTIME_DIR", relative)
		os.Setenv("PULSE_SERVER", "unix:"+relative+"/pulse/native")
	}

	if os.Getenv("DISPLAY") == "" {
		os.Setenv("DISPLAY", ":0")
	}
	// WAYLAND_DISPLAY and DBUS_SESSION_BUS_ADDRESS propagate unchanged if set.

	if !native {
		startDbus()
	}
}

// startDbus best-effort launches a system dbus-daemon inside the
// container; non-native mode has no host D-Bus to fall back on.
func startDbus() {
	os.MkdirAll("/run/dbus", 0o755)
	os.MkdirAll("/var/run/dbus", 0o755)

	path, err := hostbin.Find("dbus-daemon")
	if err != nil {
		return
	}
	cmd := exec.Command(path, "--system", "--fork", "--nopidfile")
	cmd.Run()
}
