// Package backoff computes the wait between reconnect attempts.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Strategy returns the wait before retry attempt n, counting from 1.
type Strategy interface {
	Delay(attempt int) time.Duration
}

// Func adapts a function to Strategy.
type Func func(attempt int) time.Duration

// Delay calls f.
func (f Func) Delay(attempt int) time.Duration { return f(attempt) }

// Constant waits Interval every time.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns Interval.
func (c *Constant) Delay(int) time.Duration { return c.Interval }

// Linear waits Step * attempt, capped at Max when Max is positive.
type Linear struct {
	Step time.Duration
	Max  time.Duration
}

// NewLinear creates a linear strategy.
func NewLinear(step, maxDelay time.Duration) *Linear {
	return &Linear{Step: step, Max: maxDelay}
}

// Delay returns Step * attempt.
func (l *Linear) Delay(attempt int) time.Duration {
	return capped(l.Step*time.Duration(max(attempt, 1)), l.Max)
}

// Exponential waits Initial * 2^(attempt-1), capped at Max when Max is
// positive. With Jitter set the wait is drawn uniformly from [0, delay].
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
	Jitter  bool
}

// NewExponential creates an exponential strategy without jitter.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay}
}

// Delay returns the wait for attempt.
func (e *Exponential) Delay(attempt int) time.Duration {
	d := float64(e.Initial) * math.Pow(2, float64(max(attempt, 1)-1))
	if e.Max > 0 && d > float64(e.Max) {
		d = float64(e.Max)
	}
	if e.Jitter {
		d *= rand.Float64() //nolint:gosec // jitter does not need crypto rand
	}
	return time.Duration(d)
}

func capped(d, maxDelay time.Duration) time.Duration {
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}
