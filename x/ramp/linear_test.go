package ramp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearEvenSteps(t *testing.T) {
	var got []uint8
	var waited time.Duration
	cancelled, err := Linear(0, 100, 400*time.Millisecond, 4,
		func(d time.Duration) bool { waited += d; return true },
		func(l uint8) error { got = append(got, l); return nil })
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Equal(t, []uint8{25, 50, 75, 100}, got)
	assert.Equal(t, 300*time.Millisecond, waited)
}

func TestLinearDownward(t *testing.T) {
	var got []uint8
	_, err := Linear(200, 100, time.Second, 4,
		func(time.Duration) bool { return true },
		func(l uint8) error { got = append(got, l); return nil })
	require.NoError(t, err)
	assert.Equal(t, []uint8{175, 150, 125, 100}, got)
}

func TestLinearSnapAndCancel(t *testing.T) {
	var got []uint8
	set := func(l uint8) error { got = append(got, l); return nil }

	_, err := Linear(3, 9, 0, 8, func(time.Duration) bool { return true }, set)
	require.NoError(t, err)
	assert.Equal(t, []uint8{9}, got)

	got = nil
	cancelled, err := Linear(0, 100, time.Second, 4, func(time.Duration) bool { return false }, set)
	require.NoError(t, err)
	assert.True(t, cancelled)
	assert.Equal(t, []uint8{25}, got)
}

func TestSawtoothWrapsAndStops(t *testing.T) {
	var got []uint8
	ticks := 0
	last, err := Sawtooth(254, time.Millisecond,
		func(time.Duration) bool { ticks++; return ticks < 4 },
		func(l uint8) error { got = append(got, l); return nil })
	require.NoError(t, err)
	assert.Equal(t, []uint8{254, 255, 0, 1}, got)
	assert.Equal(t, uint8(1), last)

	boom := errors.New("nack")
	last, err = Sawtooth(7, 0, func(time.Duration) bool { return true }, func(uint8) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, uint8(7), last)
}
