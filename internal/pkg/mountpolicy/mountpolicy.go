// Package mountpolicy translates a permission record into an ordered list
// of bind-mount requests (spec.md §4.3). It does not perform any mount
// syscalls itself — that is left to the caller (internal/pkg/supervisor on
// Linux) so this package stays testable on any platform.
package mountpolicy

import (
	"os"
	"path/filepath"
	"strings"
)

// Requirement marks whether a missing source or failed mount syscall is
// fatal to the launch.
type Requirement int

const (
	Optional Requirement = iota
	Required
)

// Access marks whether a bind mount is exposed read-only or read-write.
type Access int

const (
	ReadOnly Access = iota
	ReadWrite
)

// Entry is one ordered bind-mount request. Target is relative to the
// container rootfs.
type Entry struct {
	Source      string
	Target      string
	Access      Access
	Requirement Requirement
}

func (e Entry) ReadOnly() bool  { return e.Access == ReadOnly }
func (e Entry) Required() bool  { return e.Requirement == Required }

// Env is the subset of the environment the policy reads from, passed
// explicitly so tests don't need to mutate process-global state.
type Env struct {
	XDGRuntimeDir string
	Home          string
	User          string
}

// EnvFromOS reads Env from the real process environment.
func EnvFromOS() Env {
	return Env{
		XDGRuntimeDir: os.Getenv("XDG_RUNTIME_DIR"),
		Home:          os.Getenv("HOME"),
		User:          os.Getenv("USER"),
	}
}

// Permissions is the subset of permissions.Record this package cares about,
// declared locally to avoid a dependency cycle; internal/pkg/permissions.Record
// is adapted into it by the caller (internal/pkg/supervisor's Init copies
// the fields across).
type Permissions struct {
	Home       bool
	Fonts      bool
	Themes     bool
	DevMode    bool
	NativeMode bool
}

// Build produces the ordered bind-mount list for spec.md §4.3.
func Build(perm Permissions, env Env) []Entry {
	entries := []Entry{
		{Source: "/sys", Target: "sys", Access: ReadOnly, Requirement: Required},
		{Source: "/dev", Target: "dev", Access: ReadWrite, Requirement: Required},
		{Source: "/tmp", Target: "tmp", Access: ReadWrite, Requirement: Required},
	}

	if perm.NativeMode {
		return append(entries, nativeModeEntries(env)...)
	}

	if env.XDGRuntimeDir != "" {
		entries = append(entries, xdgRuntimeEntry(env.XDGRuntimeDir, Required))
	}

	if perm.Home && env.Home != "" && env.User != "" {
		entries = append(entries, Entry{
			Source:      env.Home,
			Target:      filepath.Join("home", env.User),
			Access:      ReadWrite,
			Requirement: Required,
		})
	}

	if perm.Fonts {
		entries = append(entries,
			opt("/usr/share/fonts", "usr/share/fonts", ReadOnly),
			opt("/usr/local/share/fonts", "usr/local/share/fonts", ReadOnly),
		)
	}

	if perm.Themes {
		entries = append(entries,
			opt("/usr/share/themes", "usr/share/themes", ReadOnly),
			opt("/usr/share/icons", "usr/share/icons", ReadOnly),
			opt("/usr/share/pixmaps", "usr/share/pixmaps", ReadOnly),
		)
		if env.Home != "" {
			entries = append(entries,
				opt(filepath.Join(env.Home, ".config/gtk-3.0"), "root/.config/gtk-3.0", ReadOnly),
				opt(filepath.Join(env.Home, ".config/gtk-4.0"), "root/.config/gtk-4.0", ReadOnly),
			)
		}
	}

	if perm.DevMode {
		entries = append(entries, devModeEntries(env.Home)...)
	}

	return entries
}

func nativeModeEntries(env Env) []Entry {
	entries := []Entry{
		{Source: "/run", Target: "run", Access: ReadOnly, Requirement: Optional},
	}
	if env.XDGRuntimeDir != "" {
		entries = append(entries, xdgRuntimeEntry(env.XDGRuntimeDir, Required))
	}
	for _, p := range []string{"/usr", "/lib", "/lib64", "/etc", "/bin", "/sbin", "/var"} {
		entries = append(entries, opt(p, strings.TrimPrefix(p, "/"), ReadOnly))
	}
	if env.Home != "" && env.User != "" {
		entries = append(entries, Entry{
			Source:      env.Home,
			Target:      filepath.Join("home", env.User),
			Access:      ReadWrite,
			Requirement: Required,
		})
	}
	return entries
}

// devModeEntries mounts host toolchains under host/ read-only, plus a
// same-path bind for shebang compatibility (e.g. "#!/home/u/.cargo/bin/x"
// still resolves inside the container).
func devModeEntries(home string) []Entry {
	var entries []Entry
	for _, p := range []string{"/usr/bin", "/usr/local/bin", "/usr/local/lib"} {
		entries = append(entries, opt(p, filepath.Join("host", strings.TrimPrefix(p, "/usr/")), ReadOnly))
	}
	if home == "" {
		return entries
	}
	userPaths := []string{
		".local/bin", ".local/lib", ".pyenv", ".npm", ".nvm", ".cargo", ".rustup",
	}
	for _, rel := range userPaths {
		abs := filepath.Join(home, rel)
		entries = append(entries,
			opt(abs, filepath.Join("host", rel), ReadOnly),
			opt(abs, strings.TrimPrefix(abs, "/"), ReadOnly),
		)
	}
	return entries
}

func xdgRuntimeEntry(dir string, req Requirement) Entry {
	return Entry{
		Source:      dir,
		Target:      strings.TrimPrefix(dir, "/"),
		Access:      ReadWrite,
		Requirement: req,
	}
}

func opt(source, target string, access Access) Entry {
	return Entry{Source: source, Target: target, Access: access, Requirement: Optional}
}
