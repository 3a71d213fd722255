// File: internal/usecase/pacer.go
package usecase

import (
	"context"
	"time"
)

// Pacer enforces the mandatory gap between remote submissions. It is honored
// before every request, including the first of a run, to avoid bursting right
// after authentication. Tests substitute a zero-delay implementation.
type Pacer interface {
	Wait(ctx context.Context) error
}

type fixedPacer struct {
	delay time.Duration
}

// NewFixedPacer returns a pacer that sleeps a fixed delay, aborting early
// when the context is canceled.
func NewFixedPacer(delay time.Duration) Pacer {
	return &fixedPacer{delay: delay}
}

func (p *fixedPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
