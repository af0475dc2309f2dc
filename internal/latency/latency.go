// Package latency simulates the network round trip of a remote backend.
package latency

import (
	"context"
	"time"
)

type Simulator struct {
	delay time.Duration
}

// New returns a Simulator that waits delay. A zero delay only checks the
// context.
func New(delay time.Duration) *Simulator {
	return &Simulator{delay: delay}
}

// Wait blocks for the configured delay. It returns ctx.Err() if ctx is done
// first, in which case the caller must not mutate anything.
func (s *Simulator) Wait(ctx context.Context) error {
	if s == nil || s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
