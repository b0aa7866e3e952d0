// Package session is the operator loop: it reads command lines from the
// console, runs them against a bias.Station and reports every outcome as a
// status line. A failed command never ends the session.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"biasboard-go/errcode"
	"biasboard-go/services/bias"
	"biasboard-go/services/config"
	"biasboard-go/services/console"
	"biasboard-go/x/strconvx"

	"github.com/google/shlex"
)

// ErrQuit is returned by Exec for the quit command.
var ErrQuit = errors.New("session: quit")

const (
	nl     = console.Newline
	prompt = "> "
)

// inputError marks a console failure while reading arguments; it ends Run.
type inputError struct{ err error }

func (e *inputError) Error() string { return "console: " + e.err.Error() }
func (e *inputError) Unwrap() error { return e.err }

// Session owns the station and the console for one operator.
type Session struct {
	st   *bias.Station
	io   *console.Engine
	cfg  config.Config
	log  *slog.Logger
	args []string // unread arguments of the current line
}

// New returns a session. A nil logger discards diagnostics.
func New(st *bias.Station, e *console.Engine, cfg config.Config, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Session{st: st, io: e, cfg: cfg, log: log}
}

// Run prints the menu and serves command lines until quit, end of input or
// ctx is done. ctx is consulted between commands and inside sweeps; a read
// blocked on the console is not interrupted by it.
func (s *Session) Run(ctx context.Context) error {
	s.io.Println("bias board console, type help for commands")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.io.Print(prompt)
		line, err := s.io.ReadAlphaNumeric()
		if err != nil {
			return endOfInput(err)
		}
		err = s.Exec(ctx, line)
		var ie *inputError
		switch {
		case errors.Is(err, ErrQuit):
			s.io.Println("bye")
			return nil
		case errors.As(err, &ie):
			return endOfInput(ie.err)
		}
	}
}

func endOfInput(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Exec runs one command line. Arguments missing from the line are prompted
// for. Command failures are reported on the console and returned.
func (s *Session) Exec(ctx context.Context, line string) error {
	fields, err := shlex.Split(line)
	if err != nil {
		err = errcode.New(errcode.InvalidParams, "parse", err.Error())
		s.report("parse", err)
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := lookup(fields[0])
	if !ok {
		err := errcode.New(errcode.UnknownCommand, "dispatch", "unknown command "+strconv.Quote(fields[0]))
		s.report("dispatch", err)
		return err
	}

	s.args = fields[1:]
	s.log.Debug("command", "name", cmd.name, "args", s.args)
	err = cmd.run(s, ctx)
	s.args = nil

	var ie *inputError
	if err != nil && !errors.Is(err, ErrQuit) && !errors.As(err, &ie) {
		s.report(cmd.name, err)
	}
	return err
}

// ExecScript runs every line of r through Exec, so quoting and # comments
// work as on the console. A failed command is reported and the script goes
// on; quit stops it with ErrQuit.
func (s *Session) ExecScript(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.Exec(ctx, sc.Text())
		var ie *inputError
		switch {
		case errors.Is(err, ErrQuit):
			return ErrQuit
		case errors.As(err, &ie):
			return ie.err
		}
	}
	return sc.Err()
}

// report turns a command failure into one status line.
func (s *Session) report(op string, err error) {
	var be *errcode.BusError
	switch {
	case errors.As(err, &be):
		s.log.Warn("bus error", "cmd", op, "op", be.Op, "addr", be.Addr, "status", be.Status)
		s.io.Printf("bus error: %s at 0x%02X, status %d%s", be.Op, be.Addr, be.Status, nl)
	case errcode.Of(err) == errcode.NotInitialized:
		s.log.Info("not initialised", "cmd", op, "err", err)
		s.io.Printf("%s: %s, run init-sense first%s", op, detail(err), nl)
	case errcode.Of(err) == errcode.SearchExhausted:
		s.log.Info("search exhausted", "cmd", op, "err", err)
	default:
		s.log.Info("command failed", "cmd", op, "err", err)
		s.io.Printf("%s: %s%s", op, detail(err), nl)
	}
}

func detail(err error) string {
	var e *errcode.E
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return err.Error()
}

// ---- Arguments ----

// pop returns the next argument typed on the command line.
func (s *Session) pop() (string, bool) {
	if len(s.args) == 0 {
		return "", false
	}
	a := s.args[0]
	s.args = s.args[1:]
	return a, true
}

func (s *Session) ask(label string) { s.io.Print(label + ": ") }

func inputErr(err error) error {
	if err == nil {
		return nil
	}
	return &inputError{err}
}

func (s *Session) intArg(label string) (int, error) {
	if a, ok := s.pop(); ok {
		return strconvx.LeadingInt(a), nil
	}
	s.ask(label)
	v, err := s.io.ReadInt()
	return v, inputErr(err)
}

func (s *Session) floatArg(label string) (float64, error) {
	if a, ok := s.pop(); ok {
		return strconvx.LeadingFloat(a), nil
	}
	s.ask(label)
	v, err := s.io.ReadDouble()
	return v, inputErr(err)
}

func (s *Session) wordArg(label string) (string, error) {
	if a, ok := s.pop(); ok {
		return a, nil
	}
	s.ask(label)
	v, err := s.io.ReadAlpha()
	return v, inputErr(err)
}

// channelArg reads a channel of the connected card. An argument written
// card:channel connects that card first.
func (s *Session) channelArg() (int, error) {
	if len(s.args) > 0 {
		if c, ch, ok := strings.Cut(s.args[0], ":"); ok {
			s.args[0] = ch
			card, err := cardNumber(strconvx.LeadingInt(c))
			if err != nil {
				return 0, err
			}
			if _, err := bias.Locate(strconvx.LeadingInt(ch)); err != nil {
				return 0, err
			}
			if err := s.switchCard(card, false); err != nil {
				return 0, err
			}
		}
	}
	n, err := s.intArg("channel (1-" + strconv.Itoa(bias.Channels) + ")")
	if err != nil {
		return 0, err
	}
	if _, err := bias.Locate(n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Session) byteArg(label string) (uint8, error) {
	v, err := s.intArg(label)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, errcode.New(errcode.InvalidParams, "value", "value must be 0..255")
	}
	return uint8(v), nil
}
