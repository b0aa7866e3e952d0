//go:build (linux || darwin) && !(rp2040 || rp2350)

package console

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal is a host console on a pair of files, normally stdin/stdout.
// An interactive stdin is switched to raw mode so bytes arrive unbuffered
// and unechoed; the engine does the echo.
type Terminal struct {
	out   *os.File
	fd    int
	state *term.State
	buf   [1]byte
}

func OpenTerminal(in, out *os.File) (*Terminal, error) {
	t := &Terminal{out: out, fd: int(in.Fd())}
	if term.IsTerminal(t.fd) {
		st, err := term.MakeRaw(t.fd)
		if err != nil {
			return nil, fmt.Errorf("console: raw mode: %w", err)
		}
		t.state = st
	}
	return t, nil
}

// Interactive reports whether the input is a terminal.
func (t *Terminal) Interactive() bool { return t.state != nil }

// Available polls the input with a zero timeout.
func (t *Terminal) Available() bool {
	pfd := []unix.PollFd{{Fd: int32(t.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, 0)
	return err == nil && n > 0 && pfd[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0
}

// ReadByte blocks in read(2); the runtime parks the goroutine's thread, so
// nothing spins while the operator is idle.
func (t *Terminal) ReadByte() (byte, error) {
	for {
		n, err := unix.Read(t.fd, t.buf[:])
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("console: read: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		return t.buf[0], nil
	}
}

func (t *Terminal) Write(p []byte) (int, error) { return t.out.Write(p) }

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	err := term.Restore(t.fd, t.state)
	t.state = nil
	return err
}
