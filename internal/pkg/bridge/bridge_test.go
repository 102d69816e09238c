package bridge

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTokenIsHexOfExpectedLength(t *testing.T) {
	tok, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, tok, TokenLength)
	for _, c := range tok {
		assert.True(t, (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f'))
	}
}

func TestGenerateTokenIsNotConstant(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestResolveShellCommandSudo(t *testing.T) {
	cmd, ok := resolveShellCommand("SUDO apt-get update")
	assert.True(t, ok)
	assert.Equal(t, "sudo apt-get update", cmd)
}

func TestResolveShellCommandExec(t *testing.T) {
	cmd, ok := resolveShellCommand("EXEC ls -la")
	assert.True(t, ok)
	assert.Equal(t, "ls -la", cmd)
}

func TestResolveShellCommandRejectsUnknownVerb(t *testing.T) {
	_, ok := resolveShellCommand("PING hello")
	assert.False(t, ok)
}

func TestReadLineStripsCRLF(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("hello world\r\n"))
	line, err := readLine(r)
	require.NoError(t, err)
	assert.Equal(t, "hello world", line)
}
