package session

import (
	"context"
	"time"
)

// Countdown calls tick once per interval with the seconds remaining, ending
// with 0. It returns ctx.Err() if the countdown is abandoned.
func Countdown(ctx context.Context, seconds int, interval time.Duration, tick func(remaining int)) error {
	if interval <= 0 {
		interval = time.Second
	}
	if seconds <= 0 {
		tick(0)
		return nil
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	remaining := seconds
	tick(remaining)
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			remaining--
			tick(remaining)
		}
	}
	return nil
}
