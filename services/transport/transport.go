// Package transport provides the two-wire bus used by every driver. All
// providers satisfy tinygo's drivers.I2C: one Tx call is one bus transaction
// (start, address, written bytes, optional repeated-start read, stop) and a
// failed transaction returns an errcode.Status or an error wrapping one.
package transport

import (
	"io"

	"tinygo.org/x/drivers"
)

// Bus is an I2C bus that may hold an OS resource.
type Bus interface {
	drivers.I2C
	io.Closer
}

// nopCloser adapts a bare drivers.I2C.
type nopCloser struct{ drivers.I2C }

func (nopCloser) Close() error { return nil }

// WithClose wraps a bus that needs no cleanup.
func WithClose(b drivers.I2C) Bus { return nopCloser{b} }
