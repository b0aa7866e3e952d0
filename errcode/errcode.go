package errcode

import (
	"errors"
	"strconv"
)

// Code is a stable, operator-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK              Code = "ok"
	InvalidParams   Code = "invalid_params"
	UnknownCommand  Code = "unknown_command"
	BusFault        Code = "bus_error"
	NotInitialized  Code = "not_initialized"
	NotConnected    Code = "not_connected"
	SearchExhausted Code = "search_exhausted"

	Error Code = "error" // generic fallback
)

// E keeps context and a cause next to a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds an *E for op with a message.
func New(c Code, op, msg string) *E { return &E{C: c, Op: op, Msg: msg} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Error
}

// Status is a raw transport completion code. Zero never appears as an error.
// Values follow the two-wire library convention (2 address NACK, 3 data NACK,
// 4 other, 5 timeout); the Linux transport reports the errno instead.
type Status int

const (
	StatusTooLong  Status = 1
	StatusAddrNACK Status = 2
	StatusDataNACK Status = 3
	StatusOther    Status = 4
	StatusTimeout  Status = 5
)

func (s Status) Error() string { return "i2c status " + strconv.Itoa(int(s)) }
func (s Status) Status() int   { return int(s) }

// StatusOf returns the transport status carried by err, 0 for nil and
// StatusOther when the error does not carry one.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	type statuser interface{ Status() int }
	var s statuser
	if errors.As(err, &s) {
		if v := s.Status(); v != 0 {
			return v
		}
	}
	return int(StatusOther)
}

// BusError reports a failed bus transaction. Address NACKs, contention and
// absent devices are not distinguished beyond the raw status.
type BusError struct {
	Op     string
	Addr   uint16
	Status int
	Err    error
}

func (e *BusError) Error() string {
	return string(BusFault) + ": " + e.Op + " @0x" + strconv.FormatUint(uint64(e.Addr), 16) +
		": status " + strconv.Itoa(e.Status)
}
func (e *BusError) Unwrap() error { return e.Err }
func (e *BusError) Code() Code    { return BusFault }

// WrapBus turns a transport error into a *BusError. nil stays nil.
func WrapBus(op string, addr uint16, err error) error {
	if err == nil {
		return nil
	}
	var be *BusError
	if errors.As(err, &be) {
		return err
	}
	return &BusError{Op: op, Addr: addr, Status: StatusOf(err), Err: err}
}
