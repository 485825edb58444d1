package genie

import (
	"context"
	"time"
)

// Clock is the time source of the polling loops. Tests replace it to make the
// timeout arithmetic deterministic.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// poller re-evaluates a condition at a fixed interval
type poller struct {
	clock    Clock
	interval time.Duration
}

// until calls cond until it reports done or fails. It gives up with ErrTimeout once
// budget has elapsed, so it returns no later than budget plus one interval after
// it was called, or with ctx.Err() when ctx ends first.
func (p poller) until(ctx context.Context, budget time.Duration, cond func() (bool, error)) error {
	deadline := p.clock.Now().Add(budget)
	for {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.clock.Now().Before(deadline) {
			return ErrTimeout
		}
		p.clock.Sleep(p.interval)
	}
}
