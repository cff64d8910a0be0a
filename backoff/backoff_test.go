package backoff_test

import (
	"testing"
	"time"

	"github.com/xraph/resque/backoff"
)

func TestConstant(t *testing.T) {
	c := backoff.NewConstant(2 * time.Second)
	for attempt := 1; attempt <= 4; attempt++ {
		if got := c.Delay(attempt); got != 2*time.Second {
			t.Errorf("Delay(%d) = %v", attempt, got)
		}
	}
}

func TestLinear(t *testing.T) {
	l := backoff.NewLinear(time.Second, 3*time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 3 * time.Second},
		{7, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := l.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential(t *testing.T) {
	e := backoff.NewExponential(100*time.Millisecond, time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{30, time.Second},
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_JitterStaysInRange(t *testing.T) {
	e := &backoff.Exponential{Initial: 100 * time.Millisecond, Max: time.Second, Jitter: true}
	for attempt := 1; attempt <= 10; attempt++ {
		ceiling := backoff.NewExponential(e.Initial, e.Max).Delay(attempt)
		for range 20 {
			if got := e.Delay(attempt); got < 0 || got > ceiling {
				t.Fatalf("Delay(%d) = %v, want within [0, %v]", attempt, got, ceiling)
			}
		}
	}
}

func TestFunc(t *testing.T) {
	s := backoff.Func(func(n int) time.Duration { return time.Duration(n) * time.Millisecond })
	if got := s.Delay(3); got != 3*time.Millisecond {
		t.Errorf("Delay(3) = %v", got)
	}
}
