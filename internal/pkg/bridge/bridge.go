// Package bridge implements spec.md §4.8 (Host Bridge): a loopback TCP
// listener, bound before namespace creation so its socket lives in the
// host's network namespace, that accepts one-line SUDO/EXEC requests
// from inside the sandbox and runs them on a host-side PTY.
package bridge

import (
	"bufio"
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/voidbox/voidbox/internal/pkg/vlog"
	"github.com/voidbox/voidbox/internal/pkg/voiderr"
)

const (
	maxLineBytes  = 1024
	acceptBackoff = 100 * time.Millisecond
	settleDelay   = 100 * time.Millisecond
)

// Handle is the running bridge. The launch supervisor keeps one alive
// for the lifetime of a native-mode launch and stops it once the
// container process tree exits.
type Handle struct {
	listener net.Listener
	port     int
	token    string
	running  atomic.Bool
	wg       sync.WaitGroup
}

// Start binds 127.0.0.1:0, generates a fresh token, and begins serving
// connections in the background. Call Stop when the launch ends.
func Start() (*Handle, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, &voiderr.BridgeStartFailed{Err: err}
	}
	token, err := GenerateToken()
	if err != nil {
		listener.Close()
		return nil, &voiderr.BridgeStartFailed{Err: err}
	}

	addr := listener.Addr().(*net.TCPAddr)
	h := &Handle{listener: listener, port: addr.Port, token: token}
	h.running.Store(true)

	h.wg.Add(1)
	go h.acceptLoop()

	vlog.Debugf("host bridge listening on 127.0.0.1:%d", h.port)
	return h, nil
}

func (h *Handle) Port() int    { return h.port }
func (h *Handle) Token() string { return h.token }

// Stop closes the listener and waits briefly for in-flight connections
// to notice, mirroring the original's atomic-flag-plus-settle-sleep
// shutdown.
func (h *Handle) Stop() {
	h.running.Store(false)
	h.listener.Close()
	h.wg.Wait()
	time.Sleep(settleDelay)
}

func (h *Handle) acceptLoop() {
	defer h.wg.Done()
	for h.running.Load() {
		conn, err := h.listener.Accept()
		if err != nil {
			if !h.running.Load() {
				return
			}
			vlog.Debugf("bridge accept error: %s", err)
			time.Sleep(acceptBackoff)
			continue
		}
		go h.handleConnection(conn)
	}
}

func (h *Handle) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReaderSize(conn, maxLineBytes)

	token, err := readLine(reader)
	if err != nil {
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
		vlog.Warningf("bridge connection rejected: bad token")
		return
	}

	cmdLine, err := readLine(reader)
	if err != nil {
		return
	}

	shellCmd, ok := resolveShellCommand(cmdLine)
	if !ok {
		return
	}

	if err := runOnPTY(conn, shellCmd); err != nil {
		vlog.Debugf("bridge connection error: %s", err)
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return trimRight(line), nil
}

func trimRight(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

// resolveShellCommand maps a "SUDO <cmd>" or "EXEC <cmd>" request line
// into the literal shell command to run; any other verb is rejected.
func resolveShellCommand(line string) (string, bool) {
	switch {
	case len(line) > 5 && line[:5] == "SUDO ":
		return "sudo " + line[5:], true
	case len(line) > 5 && line[:5] == "EXEC ":
		return line[5:], true
	default:
		return "", false
	}
}

// runOnPTY spawns "/bin/sh -c shellCmd" attached to a fresh PTY and pumps
// bytes bidirectionally between the PTY and conn until either side
// closes, matching spec.md's duplex byte-pump contract.
func runOnPTY(conn net.Conn, shellCmd string) error {
	cmd := exec.Command("/bin/sh", "-c", shellCmd)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("opening pty: %w", err)
	}
	defer ptmx.Close()

	done := make(chan struct{}, 2)
	go func() {
		io.Copy(conn, ptmx)
		done <- struct{}{}
	}()
	go func() {
		io.Copy(ptmx, conn)
		done <- struct{}{}
	}()
	<-done

	return cmd.Wait()
}
