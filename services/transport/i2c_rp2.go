//go:build rp2040 || rp2350

package transport

import (
	"machine"

	"biasboard-go/errcode"
)

// Open configures i2c0 or i2c1 on the board-default pins. Linux device
// names select the controller with the same number.
func Open(device string, speedHz uint32) (Bus, error) {
	if speedHz == 0 {
		speedHz = 100 * machine.KHz
	}
	var hw *machine.I2C
	cfg := machine.I2CConfig{Frequency: speedHz}
	switch device {
	case "i2c0", "/dev/i2c-0", "":
		hw = machine.I2C0
		cfg.SDA, cfg.SCL = machine.I2C0_SDA_PIN, machine.I2C0_SCL_PIN
	case "i2c1", "/dev/i2c-1":
		hw = machine.I2C1
		cfg.SDA, cfg.SCL = machine.I2C1_SDA_PIN, machine.I2C1_SCL_PIN
	default:
		return nil, errcode.New(errcode.InvalidParams, "open", "unknown bus "+device)
	}
	if err := hw.Configure(cfg); err != nil {
		return nil, err
	}
	return WithClose(rp2Bus{hw}), nil
}

// rp2Bus reports every machine-level failure as StatusOther; the RP2 driver
// does not expose the NACK phase.
type rp2Bus struct{ hw *machine.I2C }

func (b rp2Bus) Tx(addr uint16, w, r []byte) error {
	if err := b.hw.Tx(addr, w, r); err != nil {
		return &statusErr{st: errcode.StatusOther, err: err}
	}
	return nil
}

type statusErr struct {
	st  errcode.Status
	err error
}

func (e *statusErr) Error() string { return e.st.Error() + ": " + e.err.Error() }
func (e *statusErr) Unwrap() error { return e.err }
func (e *statusErr) Status() int   { return int(e.st) }
