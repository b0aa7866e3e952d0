package ramp

import (
	"time"
)

// Step writes the next level.
type Step func(level uint8) error

// Tick waits for d and reports whether to continue (false => cancelled).
type Tick func(d time.Duration) bool

// Linear moves from cur to to in steps increments spread evenly over total,
// writing every level change. steps<=1 or total==0 snaps to to.
// It returns true when tick cancelled the ramp before it reached to.
func Linear(cur, to uint8, total time.Duration, steps int, tick Tick, set Step) (bool, error) {
	if steps <= 1 || total <= 0 || cur == to {
		return false, set(to)
	}
	d := int32(to) - int32(cur)
	st := int32(steps)
	acc := int32(0)
	lvl := int32(cur)
	stepDur := total / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = time.Millisecond
	}

	for i := 1; i < steps; i++ {
		acc += d
		inc := acc / st
		if inc != 0 {
			acc -= inc * st
			lvl += inc
			if err := set(uint8(lvl)); err != nil {
				return false, err
			}
		}
		if !tick(stepDur) {
			return true, nil
		}
	}
	return false, set(to)
}

// Sawtooth writes start, start+1, ... wrapping from 255 to 0, waiting d after
// each write, until tick cancels or a write fails. It returns the last level
// written.
func Sawtooth(start uint8, d time.Duration, tick Tick, set Step) (uint8, error) {
	lvl := start
	for {
		if err := set(lvl); err != nil {
			return lvl, err
		}
		if !tick(d) {
			return lvl, nil
		}
		lvl++
	}
}
