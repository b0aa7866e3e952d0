package timex

import (
	"context"
	"time"
)

// Sleep waits for d or until ctx ends. It reports whether the full
// duration elapsed. d <= 0 only checks ctx.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Millis converts a millisecond count to a Duration; negative counts are 0.
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
