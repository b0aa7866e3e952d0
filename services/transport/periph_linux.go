//go:build linux && !(rp2040 || rp2350)

package transport

import (
	"fmt"

	"biasboard-go/errcode"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const periphPrefix = "periph:"

// periphBus is an adapter registered with periph.io (sysfs, FTDI, MCP2221).
// An empty name selects the first one found.
type periphBus struct {
	bc i2c.BusCloser
}

func openPeriph(name string, speedHz uint32) (Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("transport: periph init: %w", err)
	}
	bc, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("transport: periph open %q: %w", name, err)
	}
	if speedHz != 0 {
		if err := bc.SetSpeed(physic.Frequency(speedHz) * physic.Hertz); err != nil {
			_ = bc.Close()
			return nil, fmt.Errorf("transport: periph speed: %w", err)
		}
	}
	return &periphBus{bc: bc}, nil
}

// Tx reports periph failures as StatusOther; periph does not separate
// address and data NACKs.
func (b *periphBus) Tx(addr uint16, w, r []byte) error {
	if err := b.bc.Tx(addr, w, r); err != nil {
		return fmt.Errorf("%w: %v", errcode.StatusOther, err)
	}
	return nil
}

func (b *periphBus) Close() error { return b.bc.Close() }
