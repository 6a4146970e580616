// Package retry provides backoff calculation for transient failures, used by
// the platform client when report pushes fail.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy defines how to calculate the next retry delay.
type BackoffStrategy int

const (
	// BackoffExponential uses exponential backoff: base * 2^attempt
	BackoffExponential BackoffStrategy = iota

	// BackoffLinear uses linear backoff: base * attempt
	BackoffLinear

	// BackoffConstant uses constant backoff: base (no increase)
	BackoffConstant
)

// DefaultBaseInterval is the default delay before the first retry.
const DefaultBaseInterval = 2 * time.Second

// BackoffConfig configures the backoff behavior.
type BackoffConfig struct {
	// Strategy is the backoff strategy to use.
	// Default is BackoffExponential.
	Strategy BackoffStrategy

	// BaseInterval is the base interval for backoff calculation.
	// Default is DefaultBaseInterval (2 seconds).
	BaseInterval time.Duration

	// MaxInterval is the maximum interval between retries.
	// Default is 2 minutes.
	MaxInterval time.Duration

	// Jitter adds randomness to prevent thundering herd.
	// Value between 0.0 (no jitter) and 1.0 (full jitter).
	// Default is 0.1 (10% jitter).
	Jitter float64
}

// DefaultBackoffConfig returns a BackoffConfig with default values.
func DefaultBackoffConfig() *BackoffConfig {
	return &BackoffConfig{
		Strategy:     BackoffExponential,
		BaseInterval: DefaultBaseInterval,
		MaxInterval:  2 * time.Minute,
		Jitter:       0.1,
	}
}

// Interval calculates the backoff interval for the given attempt.
func (c *BackoffConfig) Interval(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}

	var interval time.Duration

	switch c.Strategy {
	case BackoffExponential:
		// Exponential: base * 2^(attempts-1)
		// attempts 1 -> 1x, attempts 2 -> 2x, attempts 3 -> 4x, etc.
		multiplier := math.Pow(2, float64(attempts-1))
		interval = time.Duration(float64(c.BaseInterval) * multiplier)

	case BackoffLinear:
		// Linear: base * attempts
		interval = c.BaseInterval * time.Duration(attempts)

	case BackoffConstant:
		// Constant: always base
		interval = c.BaseInterval

	default:
		multiplier := math.Pow(2, float64(attempts-1))
		interval = time.Duration(float64(c.BaseInterval) * multiplier)
	}

	// Cap at max interval
	if c.MaxInterval > 0 && interval > c.MaxInterval {
		interval = c.MaxInterval
	}

	// Apply jitter
	if c.Jitter > 0 {
		interval = c.applyJitter(interval)
	}

	return interval
}

// NextRetry calculates the next retry time based on the configuration.
func (c *BackoffConfig) NextRetry(attempts int) time.Time {
	return time.Now().Add(c.Interval(attempts))
}

// applyJitter adds randomness to the interval to prevent thundering herd.
func (c *BackoffConfig) applyJitter(interval time.Duration) time.Duration {
	if c.Jitter <= 0 {
		return interval
	}

	// Clamp jitter to [0, 1]
	jitter := c.Jitter
	if jitter > 1 {
		jitter = 1
	}

	// Calculate jitter range: [1-jitter, 1+jitter]
	// For jitter=0.1, range is [0.9, 1.1]
	jitterRange := float64(interval) * jitter
	jitterValue := (rand.Float64()*2 - 1) * jitterRange // random in [-jitterRange, +jitterRange]

	return time.Duration(float64(interval) + jitterValue)
}

// Schedule returns the jitter-free delays for a given number of attempts.
// Useful for displaying or logging the expected retry schedule.
func (c *BackoffConfig) Schedule(maxAttempts int) []time.Duration {
	if maxAttempts <= 0 {
		return nil
	}

	noJitter := *c
	noJitter.Jitter = 0

	schedule := make([]time.Duration, maxAttempts)
	for i := 0; i < maxAttempts; i++ {
		schedule[i] = noJitter.Interval(i + 1)
	}
	return schedule
}

// TotalBackoffTime calculates the total time for all retry attempts.
func (c *BackoffConfig) TotalBackoffTime(maxAttempts int) time.Duration {
	var total time.Duration
	for _, d := range c.Schedule(maxAttempts) {
		total += d
	}
	return total
}
