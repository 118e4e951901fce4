package client

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pace spaces consecutive calls by a random delay in [Min, Max).
type Pace struct {
	Min time.Duration
	Max time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPace(min, max time.Duration, seed int64) *Pace {
	return &Pace{Min: min, Max: max, rng: rand.New(rand.NewSource(seed))}
}

// NextPauseDelay returns a delay drawn uniformly from [min, max). A nil rng
// yields the midpoint.
func NextPauseDelay(min, max time.Duration, rng *rand.Rand) time.Duration {
	if min < 0 {
		min = 0
	}
	if max <= min {
		return min
	}
	span := max - min
	if rng == nil {
		return min + span/2
	}
	return min + time.Duration(rng.Int63n(int64(span)))
}

func (p *Pace) next() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return NextPauseDelay(p.Min, p.Max, p.rng)
}

// Wait sleeps for the next delay or until ctx is done.
func (p *Pace) Wait(ctx context.Context) error {
	d := p.next()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
