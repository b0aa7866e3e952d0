package ina219

import (
	"testing"

	"biasboard-go/errcode"
	"biasboard-go/services/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chip answers register reads from regs and counts calibration writes.
type chip struct {
	regs   map[byte]uint16
	calib  int
	writes [][]byte
}

func (c *chip) reply(addr uint16, w, r []byte) error {
	if len(r) == 0 {
		c.writes = append(c.writes, append([]byte(nil), w...))
		if len(w) == 3 && w[0] == RegCalibration {
			c.calib++
		}
		return nil
	}
	v := c.regs[w[0]]
	r[0], r[1] = byte(v>>8), byte(v)
	return nil
}

func newChip(t *testing.T, cfg Config, regs map[byte]uint16) (*Device, *chip, *transport.Recorder) {
	t.Helper()
	rec := transport.NewRecorder()
	c := &chip{regs: regs}
	rec.OnReply(c.reply)
	return New(rec, BaseAddress, cfg), c, rec
}

func TestConfigure(t *testing.T) {
	d, c, _ := newChip(t, Config{}, nil)
	require.NoError(t, d.Configure())
	require.Len(t, c.writes, 2)
	assert.Equal(t, []byte{RegCalibration, 0x10, 0x00}, c.writes[0])
	assert.Equal(t, []byte{RegConfig, byte(ConfigWord >> 8), byte(ConfigWord & 0xFF)}, c.writes[1])
	assert.Equal(t, uint16(0x399F), uint16(ConfigWord))
}

func TestConversions(t *testing.T) {
	d, c, _ := newChip(t, Config{}, map[byte]uint16{
		RegShunt:   uint16(0xFF38),   // -200 -> -2.00 mV
		RegBus:     uint16(1500 << 3), // 6.000 V
		RegCurrent: uint16(425),       // 42.5 mA
	})

	mv, err := d.ShuntMillivolts()
	require.NoError(t, err)
	assert.InDelta(t, -2.0, mv, 1e-9)
	assert.Zero(t, c.calib, "shunt reads do not recalibrate")

	v, err := d.BusVolts()
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v, 1e-9)
	assert.Equal(t, 1, c.calib)

	ma, err := d.CurrentMilliamps()
	require.NoError(t, err)
	assert.InDelta(t, 42.5, ma, 1e-9)
	assert.Equal(t, 2, c.calib)
}

func TestDividerScalesCurrent(t *testing.T) {
	d, _, _ := newChip(t, Config{Divider: 100}, map[byte]uint16{RegCurrent: 1000})
	assert.Equal(t, 100.0, d.Divider())
	ma, err := d.CurrentMilliamps()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, ma, 1e-9)
}

func TestAveraging(t *testing.T) {
	d, _, rec := newChip(t, Config{Average: 4}, map[byte]uint16{RegShunt: 100})
	mv, err := d.ShuntMillivolts()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mv, 1e-9)
	assert.Equal(t, 4, rec.Len())
}

func TestRead(t *testing.T) {
	d, _, _ := newChip(t, Config{}, map[byte]uint16{
		RegShunt:   50,
		RegBus:     250 << 3,
		RegCurrent: 20,
	})
	r, err := d.Read()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r.ShuntMillivolts, 1e-9)
	assert.InDelta(t, 1.0, r.BusVolts, 1e-9)
	assert.InDelta(t, 2.0, r.CurrentMilliamps, 1e-9)
}

func TestReadFailure(t *testing.T) {
	d, _, rec := newChip(t, Config{}, nil)
	rec.Fault(BaseAddress, errcode.StatusAddrNACK)
	_, err := d.Read()
	assert.Equal(t, errcode.BusFault, errcode.Of(err))
	assert.Equal(t, int(errcode.StatusAddrNACK), errcode.StatusOf(err))
}
