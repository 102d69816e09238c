// Package identity implements spec.md §4.6 (Identity Masquerade):
// in native mode, UID 0 inside the container must present the host
// user's login name rather than "root", so tools that shell out to
// `whoami`/`$USER` behave sanely.
package identity

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sys/unix"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
)

const shadowDirName = ".voidbox"

// Masquerade synthesizes passwd/group files mapping UID 0 to the host
// user and bind-mounts them over rootfs's /etc/passwd and /etc/group.
// Only called for native_mode launches.
func Masquerade(rootfs, user, home string, uid, gid int) error {
	shadowDir := filepath.Join(rootfs, shadowDirName)
	if err := os.MkdirAll(shadowDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", shadowDir, err)
	}

	// rootfs content comes from a base/deps image we didn't author;
	// resolve etc/passwd and etc/group through it rather than a plain
	// Join so a symlink planted there can't walk us outside rootfs.
	passwdSrc, err := securejoin.SecureJoin(rootfs, "etc/passwd")
	if err != nil {
		return fmt.Errorf("resolve etc/passwd under %s: %w", rootfs, err)
	}
	groupSrc, err := securejoin.SecureJoin(rootfs, "etc/group")
	if err != nil {
		return fmt.Errorf("resolve etc/group under %s: %w", rootfs, err)
	}

	passwd, err := synthesizePasswd(passwdSrc, user, home, uid, gid)
	if err != nil {
		return err
	}
	group, err := synthesizeGroup(groupSrc, user, gid)
	if err != nil {
		return err
	}

	shadowPasswd := filepath.Join(shadowDir, "passwd")
	shadowGroup := filepath.Join(shadowDir, "group")
	if err := os.WriteFile(shadowPasswd, []byte(passwd), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", shadowPasswd, err)
	}
	if err := os.WriteFile(shadowGroup, []byte(group), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", shadowGroup, err)
	}

	if err := bindOverEtcFile(passwdSrc, shadowPasswd); err != nil {
		return err
	}
	if err := bindOverEtcFile(groupSrc, shadowGroup); err != nil {
		return err
	}

	vlog.Debugf("masqueraded uid 0 as %s", user)
	return nil
}

// synthesizePasswd strips any existing root: line from src (if present)
// and appends a line mapping uid 0 to user, home, and /bin/bash.
func synthesizePasswd(src, user, home string, uid, gid int) (string, error) {
	lines, err := readNonRootLines(src, "root:")
	if err != nil {
		return "", err
	}
	lines = append(lines, fmt.Sprintf("%s:x:%d:%d::%s:/bin/bash", user, uid, gid, home))
	return strings.Join(lines, "\n") + "\n", nil
}

// synthesizeGroup strips any existing root: line and appends a line
// mapping gid 0 to user's primary group name.
func synthesizeGroup(src, user string, gid int) (string, error) {
	lines, err := readNonRootLines(src, "root:")
	if err != nil {
		return "", err
	}
	lines = append(lines, fmt.Sprintf("%s:x:%d:", user, gid))
	return strings.Join(lines, "\n") + "\n", nil
}

func readNonRootLines(path, rootPrefix string) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, rootPrefix) {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// bindOverEtcFile bind-mounts shadowPath atop target, creating target
// first (empty) if the base rootfs never shipped that file.
func bindOverEtcFile(target, shadowPath string) error {
	if _, err := os.Stat(target); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
		}
		f, err := os.Create(target)
		if err != nil {
			return fmt.Errorf("create placeholder %s: %w", target, err)
		}
		f.Close()
	}
	if err := unix.Mount(shadowPath, target, "", unix.MS_BIND, ""); err != nil {
		return fmt.Errorf("bind mount %s over %s: %w", shadowPath, target, err)
	}
	return nil
}
