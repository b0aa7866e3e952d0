// Package pcf8575 drives the PCF8575 16-bit I/O expander as a write-only
// latch. The controller never reads the port back, so the driver keeps a
// shadow of the last state the chip acknowledged and derives every write
// from it.
//
// Every write is two bytes, low byte first, covering all 16 pins.
package pcf8575

import (
	"biasboard-go/errcode"

	"tinygo.org/x/drivers"
)

// Address is the default expander address.
const Address = 0b0100000

// Pins is the number of expander outputs.
const Pins = 16

// NextState returns old with bit pin forced to value. Branchless
// set-or-clear: x ^ ((-v ^ x) & mask).
func NextState(old uint16, pin uint8, value bool) uint16 {
	var v uint16
	if value {
		v = 1
	}
	return old ^ ((-v ^ old) & (uint16(1) << pin))
}

// Device is one expander and its shadow state.
type Device struct {
	bus     drivers.I2C
	Address uint16

	state uint16 // last acknowledged port value
	w     [2]byte
}

// New returns an expander driver with an all-low shadow. The chip is not
// touched. addr 0 selects Address.
func New(bus drivers.I2C, addr uint16) *Device {
	if addr == 0 {
		addr = Address
	}
	return &Device{bus: bus, Address: addr}
}

// State returns the shadow: exactly what was last transmitted successfully.
func (d *Device) State() uint16 { return d.state }

// Reset clears the shadow without touching the chip.
func (d *Device) Reset() { d.state = 0 }

// SetPin drives one output. On a failed write the shadow is left unchanged.
func (d *Device) SetPin(pin uint8, value bool) error {
	if pin >= Pins {
		return errcode.New(errcode.InvalidParams, "set_pin", "pin must be 0..15")
	}
	return d.commit(NextState(d.state, pin, value))
}

// SetAll drives every output high (0xFFFF) or low (0x0000).
func (d *Device) SetAll(high bool) error {
	var v uint16
	if high {
		v = 0xFFFF
	}
	return d.commit(v)
}

// commit transmits next and adopts it as the shadow only once acknowledged.
func (d *Device) commit(next uint16) error {
	d.w[0] = byte(next)      // low
	d.w[1] = byte(next >> 8) // high
	if err := d.bus.Tx(d.Address, d.w[:2], nil); err != nil {
		return errcode.WrapBus("set_pins", d.Address, err)
	}
	d.state = next
	return nil
}
