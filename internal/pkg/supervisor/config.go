// Package supervisor runs the ordered phase sequence a single container
// launch is built from: namespaces, rootfs materialization, bind mounts,
// identity masquerade, pivot, environment, bridge shims, subreaper, spawn,
// reap (spec.md §4.7). It sequences the nsorchestrator, overlay, identity
// and pivot packages, which make their own unshare(2)/mount(2) calls, and
// performs the permission bind mounts itself.
package supervisor

import (
	"github.com/voidbox/voidbox/internal/pkg/permissions"
)

// Config is everything a single launch needs, already resolved by the CLI
// layer (manifest loaded, slug validated, rootfs path computed).
type Config struct {
	Slug     string
	Rootfs   string
	BaseDir  string
	DepsID   string
	User     string
	Home     string
	UID      int
	GID      int
	Cmd      string
	Args     []string
	Perm     permissions.Record
	Hostname string
}

const containerHostname = "voidbox"
