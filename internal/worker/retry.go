package worker

import (
	"math"
	"time"
)

// Backoff defaults for refund dispatch: a quick first retry, capped at
// a minute so a flapping provider does not park money for long.
const (
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = time.Minute
	defaultBackoffFactor = 2.0
)

// RetryPolicy controls how failed refund attempts are rescheduled.
// The zero value is usable; unset fields fall back to the package
// defaults above.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = defaultMaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = defaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultMaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = defaultBackoffFactor
	}
	return r
}

// NextDelay returns the wait before the given attempt (1-based),
// growing by BackoffFactor per attempt and clamped to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	return d
}
