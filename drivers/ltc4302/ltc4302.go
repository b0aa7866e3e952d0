// Package ltc4302 drives the LTC4302 addressable bus repeater. Each card
// carries one repeater; writing the connect command joins the controller bus
// to the card bus, the disconnect command separates them again.
//
// The repeater answers at BaseAddress plus the card address strapped on the
// backplane. Only one card should be connected at a time; the driver does not
// enforce it.
package ltc4302

import (
	"biasboard-go/errcode"

	"tinygo.org/x/drivers"
)

// BaseAddress is the repeater address for card 0.
const BaseAddress = 0b1100000

// Command bytes.
const (
	CmdConnect    = 0b11100000
	CmdDisconnect = 0b01100000
)

// Device is the set of repeaters reachable from the controller bus.
type Device struct {
	bus  drivers.I2C
	base uint16
	w    [1]byte
}

// New returns a repeater driver. base 0 selects BaseAddress.
func New(bus drivers.I2C, base uint16) *Device {
	if base == 0 {
		base = BaseAddress
	}
	return &Device{bus: bus, base: base}
}

// Address is the effective bus address of the repeater on card.
func (d *Device) Address(card uint8) uint16 { return d.base + uint16(card) }

// Connect joins the bus of card to the controller bus.
func (d *Device) Connect(card uint8) error { return d.command("connect", card, CmdConnect) }

// Disconnect separates the bus of card from the controller bus.
func (d *Device) Disconnect(card uint8) error {
	return d.command("disconnect", card, CmdDisconnect)
}

func (d *Device) command(op string, card uint8, cmd byte) error {
	addr := d.Address(card)
	d.w[0] = cmd
	return errcode.WrapBus(op, addr, d.bus.Tx(addr, d.w[:1], nil))
}
