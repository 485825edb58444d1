package genie

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock only advances when something sleeps on it
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestPollerTimesOutWithinBudget(t *testing.T) {
	clock := newManualClock()
	p := poller{clock: clock, interval: time.Millisecond}
	start := clock.Now()

	calls := 0
	err := p.until(context.Background(), 10*time.Millisecond, func() (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, ErrTimeout)
	assert.LessOrEqual(t, clock.Now().Sub(start), 11*time.Millisecond)
	assert.Equal(t, 11, calls)
}

func TestPollerSucceeds(t *testing.T) {
	clock := newManualClock()
	p := poller{clock: clock, interval: time.Millisecond}

	calls := 0
	err := p.until(context.Background(), time.Second, func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPollerStopsOnError(t *testing.T) {
	p := poller{clock: newManualClock(), interval: time.Millisecond}
	boom := errors.New("boom")
	err := p.until(context.Background(), time.Second, func() (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestPollerHonoursContext(t *testing.T) {
	p := poller{clock: newManualClock(), interval: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := p.until(ctx, time.Hour, func() (bool, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}
