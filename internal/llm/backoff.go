package llm

import "time"

// Backoff returns the exponential retry delay for a 1-based attempt,
// capped at max. Attempt 1 waits base, attempt 2 waits 2*base, and so on.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
