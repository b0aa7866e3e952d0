// Package ina219 drives the INA219 shunt current/voltage monitor as used on
// the bias cards (32 V range, /8 gain, 12-bit conversions, continuous mode).
//
// Registers are 16 bits, transferred MSB first. Current and bus voltage reads
// rewrite the calibration register first so a chip that browned out keeps
// reporting in the expected scale.
package ina219

import (
	"biasboard-go/errcode"
	"biasboard-go/types"

	"tinygo.org/x/drivers"
)

// BaseAddress is the sense chip of bias channel 1; channel n sits at
// BaseAddress + n - 1.
const BaseAddress = 0b1001000

// Registers.
const (
	RegConfig      = 0x00
	RegShunt       = 0x01
	RegBus         = 0x02
	RegPower       = 0x03
	RegCurrent     = 0x04
	RegCalibration = 0x05
)

// Configuration fields.
const (
	cfgBusRange32V    = 0x2000
	cfgGain8_320mV    = 0x1800
	cfgBusADC12Bit    = 0x0180
	cfgShuntADC12Bit  = 0x0018
	cfgModeContinuous = 0x07

	ConfigWord      = cfgBusRange32V | cfgGain8_320mV | cfgBusADC12Bit | cfgShuntADC12Bit | cfgModeContinuous
	CalibrationWord = 0x1000
)

// Config holds per-device scaling. All fields are optional.
type Config struct {
	// Divider scales the current register for the fitted sense resistor.
	// Revisions shipped with 1 and 100. Default 1.
	Divider float64
	// Average is the number of samples averaged per value. Default 1.
	Average int
}

// Device is one sense chip.
type Device struct {
	bus     drivers.I2C
	Address uint16

	divider float64
	average int
	w       [3]byte
	r       [2]byte
}

func New(bus drivers.I2C, addr uint16, cfg Config) *Device {
	if cfg.Divider <= 0 {
		cfg.Divider = 1
	}
	if cfg.Average <= 0 {
		cfg.Average = 1
	}
	return &Device{bus: bus, Address: addr, divider: cfg.Divider, average: cfg.Average}
}

// Divider returns the current scaling divisor of this device.
func (d *Device) Divider() float64 { return d.divider }

// Configure writes calibration and configuration.
func (d *Device) Configure() error {
	if err := d.writeWord(RegCalibration, CalibrationWord); err != nil {
		return err
	}
	return d.writeWord(RegConfig, ConfigWord)
}

// ShuntMillivolts returns the shunt voltage (10 µV LSB).
func (d *Device) ShuntMillivolts() (float64, error) {
	return d.averaged(func() (float64, error) {
		raw, err := d.readWord(RegShunt)
		return float64(int16(raw)) * 0.01, err
	})
}

// BusVolts returns the bus voltage (4 mV LSB above the CNVR/OVF bits).
func (d *Device) BusVolts() (float64, error) {
	return d.averaged(func() (float64, error) {
		if err := d.writeWord(RegCalibration, CalibrationWord); err != nil {
			return 0, err
		}
		raw, err := d.readWord(RegBus)
		return float64((raw>>3)*4) * 0.001, err
	})
}

// CurrentMilliamps returns the current scaled by the device divider.
func (d *Device) CurrentMilliamps() (float64, error) {
	return d.averaged(func() (float64, error) {
		if err := d.writeWord(RegCalibration, CalibrationWord); err != nil {
			return 0, err
		}
		raw, err := d.readWord(RegCurrent)
		return float64(int16(raw)) / (10 * d.divider), err
	})
}

// Read samples shunt voltage, bus voltage and current in that order.
func (d *Device) Read() (types.SenseReading, error) {
	var s types.SenseReading
	var err error
	if s.ShuntMillivolts, err = d.ShuntMillivolts(); err != nil {
		return types.SenseReading{}, err
	}
	if s.BusVolts, err = d.BusVolts(); err != nil {
		return types.SenseReading{}, err
	}
	if s.CurrentMilliamps, err = d.CurrentMilliamps(); err != nil {
		return types.SenseReading{}, err
	}
	return s, nil
}

func (d *Device) averaged(sample func() (float64, error)) (float64, error) {
	var sum float64
	for i := 0; i < d.average; i++ {
		v, err := sample()
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum / float64(d.average), nil
}

// 16-bit register access (big-endian: HIGH then LOW).

func (d *Device) readWord(reg byte) (uint16, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:2]); err != nil {
		return 0, errcode.WrapBus("read_reg", d.Address, err)
	}
	return uint16(d.r[0])<<8 | uint16(d.r[1]), nil
}

func (d *Device) writeWord(reg byte, val uint16) error {
	d.w[0] = reg
	d.w[1] = byte(val >> 8) // high
	d.w[2] = byte(val)      // low
	return errcode.WrapBus("write_reg", d.Address, d.bus.Tx(d.Address, d.w[:3], nil))
}
