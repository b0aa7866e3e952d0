// Package search drives one actuator through its range while watching one
// measurement: a first-fit closed-loop search, an endless sawtooth sweep and
// a timed linear ramp. All three poll for operator input between steps and
// stop cooperatively; a write in flight always completes.
package search

import (
	"context"
	"fmt"
	"time"

	"biasboard-go/errcode"
	"biasboard-go/types"
	"biasboard-go/x/mathx"
	"biasboard-go/x/ramp"
	"biasboard-go/x/timex"
)

// MaxSteps is the size of the actuator range.
const MaxSteps = 256

// Actuator writes one actuator value.
type Actuator func(value uint8) error

// Measure samples the controlled quantity.
type Measure func() (float64, error)

// Poll reports, without blocking, whether the operator asked to stop.
type Poll func() bool

// Sleeper pauses for d. It returns false when ctx ended first.
type Sleeper func(ctx context.Context, d time.Duration) bool

// Params configures Run.
type Params struct {
	Target    float64
	Tolerance float64
	MaxSteps  int           // 0 or > MaxSteps means the full range
	Settle    time.Duration // pause between a write and its measurement
	Sleep     Sleeper       // nil means timex.Sleep
}

// Run writes 0, 1, 2, ... to set and stops at the first value whose
// measurement lies within Tolerance of Target. The range is scanned
// linearly since the response is not assumed monotonic.
//
// After each write and settle pause poll is consulted once; a pending
// request (or a done ctx) ends the search with Cancelled set and a nil
// error. The actuator is left at its last value in every outcome. When no
// value fits, the error has code errcode.SearchExhausted.
func Run(ctx context.Context, p Params, set Actuator, measure Measure, poll Poll) (types.SearchResult, error) {
	steps := p.MaxSteps
	if steps <= 0 || steps > MaxSteps {
		steps = MaxSteps
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timex.Sleep
	}

	var res types.SearchResult
	for i := 0; i < steps; i++ {
		v := uint8(i)
		if err := set(v); err != nil {
			return res, err
		}
		res.Value, res.Steps = v, i+1

		if !sleep(ctx, p.Settle) || (poll != nil && poll()) {
			res.Cancelled = true
			return res, nil
		}

		m, err := measure()
		if err != nil {
			return res, err
		}
		res.Measurement = m
		if mathx.Within(p.Target, m, p.Tolerance) {
			return res, nil
		}
	}
	return res, &errcode.E{
		C:   errcode.SearchExhausted,
		Op:  "search",
		Msg: fmt.Sprintf("no value within %g of %g after %d steps", p.Tolerance, p.Target, res.Steps),
	}
}

// Sweep writes start, start+1, ... wrapping past 255, pausing step after
// each write, until poll reports input or ctx ends. It returns the last
// value written.
func Sweep(ctx context.Context, start uint8, step time.Duration, sleep Sleeper, set Actuator, poll Poll) (uint8, error) {
	return ramp.Sawtooth(start, step, tick(ctx, sleep, poll), ramp.Step(set))
}

// Ramp moves the actuator from cur to to in steps increments spread over
// total. It reports whether the ramp was interrupted before reaching to.
func Ramp(ctx context.Context, cur, to uint8, total time.Duration, steps int, sleep Sleeper, set Actuator, poll Poll) (bool, error) {
	return ramp.Linear(cur, to, total, steps, tick(ctx, sleep, poll), ramp.Step(set))
}

func tick(ctx context.Context, sleep Sleeper, poll Poll) ramp.Tick {
	if sleep == nil {
		sleep = timex.Sleep
	}
	return func(d time.Duration) bool {
		if !sleep(ctx, d) {
			return false
		}
		return poll == nil || !poll()
	}
}
