// Package hostbin resolves the small set of host executables voidbox
// shells out to, confined to a fixed allowlist so a typo'd name can
// never turn into an arbitrary PATH lookup.
package hostbin

import (
	"fmt"
	"os/exec"
)

// allowed names voidbox is permitted to resolve from the host PATH.
var allowed = map[string]bool{
	"mount":       true,
	"umount":      true,
	"tar":         true,
	"dbus-daemon": true,
	"sh":          true,
}

// Find returns the absolute path to name, or an error if name is not on
// the allowlist or not found on PATH.
func Find(name string) (string, error) {
	if !allowed[name] {
		return "", fmt.Errorf("hostbin: %q is not an allowed executable", name)
	}
	return exec.LookPath(name)
}

// Exists reports whether name is allowed and resolves on PATH, swallowing
// the error.
func Exists(name string) bool {
	_, err := Find(name)
	return err == nil
}
