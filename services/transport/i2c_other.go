//go:build !linux && !rp2040 && !rp2350

package transport

import "biasboard-go/errcode"

// Open has no hardware bus on this platform; use a Recorder.
func Open(device string, speedHz uint32) (Bus, error) {
	return nil, errcode.New(errcode.InvalidParams, "open", "no i2c transport on this platform")
}
