package game

import (
	"context"
	"time"
)

// DefaultResetHourUTC is the hour a new daily puzzle becomes available.
const DefaultResetHourUTC = 3

// Countdown is a duration broken into display units.
type Countdown struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Duration converts the countdown back into a time.Duration.
func (c Countdown) Duration() time.Duration {
	return time.Duration(c.Hours)*time.Hour +
		time.Duration(c.Minutes)*time.Minute +
		time.Duration(c.Seconds)*time.Second
}

// IsZero reports whether the countdown has run out.
func (c Countdown) IsZero() bool {
	return c == Countdown{}
}

// NextReset returns the next resetHourUTC:00:00 strictly after now. At or past
// today's reset it rolls over to tomorrow. Hours outside 0-23 are clamped.
func NextReset(now time.Time, resetHourUTC int) time.Time {
	resetHourUTC = max(0, min(resetHourUTC, 23))
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), resetHourUTC, 0, 0, 0, time.UTC)
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// TimeUntilNextReset returns the time left until the next daily reset,
// rounded down to whole seconds. A zero now yields a zero Countdown.
//
// This is a pure function of now: callers re-invoke it every tick instead of
// decrementing a stored value, so a rollover is picked up automatically.
func TimeUntilNextReset(now time.Time, resetHourUTC int) Countdown {
	if now.IsZero() {
		return Countdown{}
	}
	d := NextReset(now, resetHourUTC).Sub(now.UTC())
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return Countdown{
		Hours:   total / 3600,
		Minutes: total % 3600 / 60,
		Seconds: total % 60,
	}
}

// WatchCountdown emits a freshly computed countdown immediately and then on
// every interval tick until ctx is cancelled, at which point the ticker is
// stopped and the channel closed.
func WatchCountdown(ctx context.Context, now func() time.Time, interval time.Duration, resetHourUTC int) <-chan Countdown {
	out := make(chan Countdown, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case out <- TimeUntilNextReset(now(), resetHourUTC):
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
