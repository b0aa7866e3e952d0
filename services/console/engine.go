// Package console is the operator side of a session: a blocking,
// charset-filtered line editor over a raw byte stream, with typed accessors
// that never fail on malformed numbers.
package console

import (
	"fmt"
	"io"

	"biasboard-go/x/strconvx"
)

// Stream is the duplex byte stream behind a console.
type Stream interface {
	// Available reports pending input without blocking.
	Available() bool
	// ReadByte blocks until a byte arrives. There is no timeout.
	ReadByte() (byte, error)
	io.Writer
}

// Control bytes.
const (
	keyBackspace = 0x08
	keyDelete    = 0x7F
	keyCR        = '\r'
	keyLF        = '\n'
)

// Newline is emitted after a completed line and by Println.
const Newline = "\r\n"

var eraseSeq = []byte{keyBackspace, ' ', keyBackspace}

// Engine reads lines from a Stream. It is not safe for concurrent use; a
// session owns exactly one.
type Engine struct {
	s       Stream
	echo    bool
	afterCR bool // last line ended on CR; swallow one LF
	held    bool // pushback holds a byte read ahead by Pending
	pushb   byte
	line    []byte
	one     [1]byte
}

// New returns an engine with echo enabled.
func New(s Stream) *Engine {
	return &Engine{s: s, echo: true, line: make([]byte, 0, 64)}
}

// SetEcho switches input echo. With echo off a read produces no output.
func (e *Engine) SetEcho(on bool) { e.echo = on }

func (e *Engine) Echo() bool { return e.echo }

// ReadLine blocks until CR or LF and returns the accepted bytes without the
// terminator. Backspace and DEL erase the last accepted byte. An LF directly
// following a CR-terminated line is treated as part of that terminator.
// On a stream error the partial line is returned with the error.
func (e *Engine) ReadLine(cs Charset) (string, error) {
	e.line = e.line[:0]
	for {
		b, err := e.readByte()
		if err != nil {
			e.afterCR = false
			return string(e.line), err
		}
		if e.afterCR {
			e.afterCR = false
			if b == keyLF {
				continue
			}
		}
		switch {
		case b == keyCR || b == keyLF:
			e.afterCR = b == keyCR
			if e.echo {
				_, _ = io.WriteString(e.s, Newline)
			}
			return string(e.line), nil
		case b == keyBackspace || b == keyDelete:
			if len(e.line) == 0 {
				continue
			}
			e.line = e.line[:len(e.line)-1]
			if e.echo {
				_, _ = e.s.Write(eraseSeq)
			}
		case cs.Accepts(b):
			e.line = append(e.line, b)
			if e.echo {
				e.one[0] = b
				_, _ = e.s.Write(e.one[:])
			}
		}
	}
}

// ReadInt reads an integer line. Input without leading digits yields 0.
func (e *Engine) ReadInt() (int, error) {
	s, err := e.ReadLine(NumericInteger)
	return strconvx.LeadingInt(s), err
}

// ReadDouble reads a decimal line. Input without digits yields 0.
func (e *Engine) ReadDouble() (float64, error) {
	s, err := e.ReadLine(NumericDecimal)
	return strconvx.LeadingFloat(s), err
}

func (e *Engine) ReadAlpha() (string, error) { return e.ReadLine(Alpha) }

func (e *Engine) ReadAlphaNumeric() (string, error) { return e.ReadLine(AlphaNumeric) }

// Pending reports, without blocking, whether operator input is waiting.
// The LF of a CRLF terminator already returned by ReadLine is not input: it
// is consumed here, and any other byte read while checking is kept for the
// next read.
func (e *Engine) Pending() bool {
	if e.held {
		return true
	}
	if !e.s.Available() {
		return false
	}
	if !e.afterCR {
		return true
	}
	e.afterCR = false
	b, err := e.s.ReadByte()
	if err != nil {
		return false
	}
	if b == keyLF {
		return e.s.Available()
	}
	e.held, e.pushb = true, b
	return true
}

// Discard drops every byte already waiting.
func (e *Engine) Discard() {
	e.held = false
	for e.s.Available() {
		if _, err := e.s.ReadByte(); err != nil {
			return
		}
	}
	e.afterCR = false
}

func (e *Engine) readByte() (byte, error) {
	if e.held {
		e.held = false
		return e.pushb, nil
	}
	return e.s.ReadByte()
}

// Print writes operator text regardless of echo.
func (e *Engine) Print(s string) { _, _ = io.WriteString(e.s, s) }

func (e *Engine) Println(s string) { e.Print(s + Newline) }

func (e *Engine) Printf(format string, a ...any) { e.Print(fmt.Sprintf(format, a...)) }
