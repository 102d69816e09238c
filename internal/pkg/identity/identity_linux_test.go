package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizePasswdStripsRootAndAppendsUser(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "passwd")
	require.NoError(t, os.WriteFile(src, []byte("root:x:0:0:root:/root:/bin/bash\ndaemon:x:1:1::/:/usr/sbin/nologin\n"), 0o644))

	out, err := synthesizePasswd(src, "alice", "/home/alice", 0, 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "root:x:0:0:root")
	assert.Contains(t, out, "daemon:x:1:1")
	assert.Contains(t, out, "alice:x:0:0::/home/alice:/bin/bash")
}

func TestSynthesizePasswdMissingSourceStartsEmpty(t *testing.T) {
	out, err := synthesizePasswd(filepath.Join(t.TempDir(), "missing"), "alice", "/home/alice", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice:x:0:0::/home/alice:/bin/bash\n", out)
}

func TestSynthesizeGroupStripsRootAndAppendsUser(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "group")
	require.NoError(t, os.WriteFile(src, []byte("root:x:0:\nsudo:x:27:alice\n"), 0o644))

	out, err := synthesizeGroup(src, "alice", 0)
	require.NoError(t, err)
	assert.NotContains(t, out, "root:x:0:\n")
	assert.Contains(t, out, "sudo:x:27:alice")
	assert.Contains(t, out, "alice:x:0:")
}
