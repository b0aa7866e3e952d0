// Package ad5144 drives the AD5144 quad digital potentiometer. Wipers are
// written with a single RDAC command and never read back; the driver
// remembers the last value written per wiper.
package ad5144

import (
	"biasboard-go/errcode"

	"tinygo.org/x/drivers"
)

// Addresses of the two pots on a bias card.
const (
	Pot1Address = 0b0101111
	Pot2Address = 0b0100011
)

// CmdWriteRDAC plus the channel index selects the wiper register.
const CmdWriteRDAC = 0b00010000

// Channels per package.
const Channels = 4

// Device is one potentiometer package.
type Device struct {
	bus     drivers.I2C
	Address uint16

	wiper [Channels]uint8
	w     [2]byte
}

func New(bus drivers.I2C, addr uint16) *Device {
	return &Device{bus: bus, Address: addr}
}

// SetWiper writes value to channel ch (0..3). Success is the bus ACK only.
func (d *Device) SetWiper(ch, value uint8) error {
	if ch >= Channels {
		return errcode.New(errcode.InvalidParams, "set_wiper", "wiper must be 0..3")
	}
	d.w[0] = CmdWriteRDAC + ch
	d.w[1] = value
	if err := d.bus.Tx(d.Address, d.w[:2], nil); err != nil {
		return errcode.WrapBus("set_wiper", d.Address, err)
	}
	d.wiper[ch] = value
	return nil
}

// Wiper returns the last value acknowledged for channel ch.
func (d *Device) Wiper(ch uint8) uint8 {
	if ch >= Channels {
		return 0
	}
	return d.wiper[ch]
}

// Wipers returns a copy of every remembered wiper value.
func (d *Device) Wipers() []uint8 {
	out := make([]uint8, Channels)
	copy(out, d.wiper[:])
	return out
}

// Zero writes 0 to every wiper, stopping at the first failure.
func (d *Device) Zero() error {
	for ch := uint8(0); ch < Channels; ch++ {
		if err := d.SetWiper(ch, 0); err != nil {
			return err
		}
	}
	return nil
}
