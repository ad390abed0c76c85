package monitor

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
)

// graceBackOff retries at a fixed interval until grace has passed since start
type graceBackOff struct {
	clock    clockwork.Clock
	start    time.Time
	grace    time.Duration
	interval time.Duration
}

func (g *graceBackOff) NextBackOff() time.Duration {
	if g.clock.Since(g.start) < g.grace {
		return g.interval
	}
	return backoff.Stop
}

// Reset is a no-op, the grace period counts from the start of the monitor
func (g *graceBackOff) Reset() {}

// clockTimer drives backoff retries from a clockwork clock
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	t.timer = t.clock.NewTimer(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.Chan()
}
