package bias

import (
	"testing"

	"biasboard-go/drivers/ltc4302"
	"biasboard-go/errcode"
	"biasboard-go/services/config"
	"biasboard-go/services/transport"
	"biasboard-go/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	cases := []struct {
		n      int
		pot    int
		wiper  uint8
		sense  uint16
		enable uint8
	}{
		{1, 0, 0, 0, 1},
		{4, 0, 3, 3, 4},
		{5, 1, 0, 4, 5},
		{8, 1, 3, 7, 8},
	}
	for _, tc := range cases {
		c, err := Locate(tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.pot, c.Pot, "channel %d", tc.n)
		assert.Equal(t, tc.wiper, c.Wiper, "channel %d", tc.n)
		assert.Equal(t, tc.sense, c.Sense, "channel %d", tc.n)
		assert.Equal(t, tc.enable, c.Enable, "channel %d", tc.n)
	}

	for _, n := range []int{0, 9, -1} {
		_, err := Locate(n)
		assert.Equal(t, errcode.InvalidParams, errcode.Of(err), "channel %d", n)
	}
}

func TestLocateLNA(t *testing.T) {
	cases := []struct {
		n    int
		card uint8
		ch   int
	}{
		{1, 1, 1},
		{8, 1, 8},
		{9, 2, 1},
		{20, 3, 4},
		{144, 18, 8},
	}
	for _, tc := range cases {
		card, ch, err := LocateLNA(tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.card, card, "lna %d", tc.n)
		assert.Equal(t, tc.ch, ch, "lna %d", tc.n)
	}
	for _, n := range []int{0, 145} {
		_, _, err := LocateLNA(n)
		assert.Equal(t, errcode.InvalidParams, errcode.Of(err), "lna %d", n)
	}
}

func TestConnectKeepsShadowDisconnectClears(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())

	require.NoError(t, st.SetPin(3, true))
	require.NoError(t, st.Connect(5))
	assert.Equal(t, uint16(1<<3), st.Pins(), "connect must not touch the shadow")

	card, ok := st.Card()
	assert.True(t, ok)
	assert.Equal(t, uint8(5), card)

	txs := rec.To(0x65)
	require.Len(t, txs, 1)
	assert.Equal(t, []byte{ltc4302.CmdConnect}, txs[0].W)

	require.NoError(t, st.Disconnect(5))
	assert.Equal(t, uint16(0), st.Pins())
	_, ok = st.Card()
	assert.False(t, ok)
}

func TestDisconnectDropsSenseHandles(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())
	require.NoError(t, st.Connect(1))
	require.NoError(t, st.InitSense(1, 0))
	require.True(t, st.SenseReady(1))

	rec.Fault(0x61, errcode.StatusAddrNACK)
	require.Error(t, st.Disconnect(1))
	assert.True(t, st.SenseReady(1), "a failed disconnect keeps the handles")

	rec.Heal(0x61)
	require.NoError(t, st.Disconnect(1))
	assert.False(t, st.SenseReady(1))

	rec.Clear()
	_, err := st.ReadSense(1)
	assert.Equal(t, errcode.NotInitialized, errcode.Of(err))
	assert.Zero(t, rec.Len())
	assert.Empty(t, st.Status().Sense)
}

func TestDisconnectFailureKeepsShadow(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())
	require.NoError(t, st.SetPin(7, true))

	rec.Fault(0x62, errcode.StatusAddrNACK)
	err := st.Disconnect(2)
	require.Error(t, err)
	assert.Equal(t, errcode.BusFault, errcode.Of(err))
	assert.Equal(t, int(errcode.StatusAddrNACK), errcode.StatusOf(err))
	assert.Equal(t, uint16(1<<7), st.Pins())
}

func TestReadSenseUninitialisedSkipsBus(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())

	_, err := st.ReadSense(3)
	require.Error(t, err)
	assert.Equal(t, errcode.NotInitialized, errcode.Of(err))
	_, err = st.Measure(3, types.QuantityCurrent)
	assert.Equal(t, errcode.NotInitialized, errcode.Of(err))
	assert.Zero(t, rec.Len())
}

func TestInitSenseFailureLeavesNoHandle(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())

	rec.Fault(0x48+1, errcode.StatusAddrNACK)
	require.Error(t, st.InitSense(2, 0))
	assert.False(t, st.SenseReady(2))

	rec.Heal(0x48 + 1)
	require.NoError(t, st.InitSense(2, 0))
	assert.True(t, st.SenseReady(2))

	// Calibration then configuration.
	txs := rec.To(0x49)
	require.Len(t, txs, 3)
	assert.Equal(t, []byte{0x05, 0x10, 0x00}, txs[1].W)
	assert.Equal(t, byte(0x00), txs[2].W[0])
}

func TestSetChannelWiperRoutesToPot(t *testing.T) {
	rec := transport.NewRecorder()
	st := New(rec, config.Default())

	require.NoError(t, st.SetChannelWiper(6, 200))
	txs := rec.To(0x23)
	require.Len(t, txs, 1)
	assert.Equal(t, []byte{0x11, 200}, txs[0].W)

	v, err := st.ChannelWiper(6)
	require.NoError(t, err)
	assert.Equal(t, uint8(200), v)

	require.NoError(t, st.SetWiper(0x2F, 2, 9))
	assert.Equal(t, []byte{0x12, 9}, rec.To(0x2F)[0].W)

	// Addresses outside the configured list still work.
	require.NoError(t, st.SetWiper(0x2C, 0, 1))
	assert.Len(t, rec.To(0x2C), 1)
}

func TestSimulatedCard(t *testing.T) {
	cfg := config.Default()
	rec := Simulate(cfg)
	st := New(rec, cfg)

	// Nothing answers behind a disconnected repeater.
	err := st.InitSense(1, 0)
	assert.Equal(t, errcode.BusFault, errcode.Of(err))

	require.NoError(t, st.Connect(1))
	require.NoError(t, st.InitBoard(0))

	r, err := st.ReadSense(1)
	require.NoError(t, err)
	assert.InDelta(t, simMinVolts, r.BusVolts, 0.01)
	assert.InDelta(t, 1.2, r.CurrentMilliamps, 0.01)
	assert.InDelta(t, 0.12, r.ShuntMillivolts, 0.01)

	require.NoError(t, st.SetChannelWiper(1, 255))
	v, err := st.Measure(1, types.QuantityVoltage)
	require.NoError(t, err)
	assert.InDelta(t, simMaxVolts, v, 0.01)
	i, err := st.Measure(1, types.QuantityCurrent)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, i, 0.01)

	// Channel off reads zero.
	require.NoError(t, st.SetPin(1, false))
	v, err = st.Measure(1, types.QuantityVoltage)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 0.001)

	s := st.Status()
	assert.True(t, s.Connected)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, s.Sense)
	assert.Equal(t, uint8(255), s.Wipers[0][0])
	assert.Equal(t, uint16(0x01FD), s.Pins)
}
