//go:build !(linux || darwin) && !(rp2040 || rp2350)

package console

import (
	"bufio"
	"os"
)

// Terminal is a line-buffered fallback console. Available always reports
// false, so searches run to completion.
type Terminal struct {
	in  *bufio.Reader
	out *os.File
}

func OpenTerminal(in, out *os.File) (*Terminal, error) {
	return &Terminal{in: bufio.NewReader(in), out: out}, nil
}

func (t *Terminal) Interactive() bool           { return false }
func (t *Terminal) Available() bool             { return false }
func (t *Terminal) ReadByte() (byte, error)     { return t.in.ReadByte() }
func (t *Terminal) Write(p []byte) (int, error) { return t.out.Write(p) }
func (t *Terminal) Close() error                { return nil }
