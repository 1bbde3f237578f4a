package scheduler

import "time"

// backoff returns the wait after the given number of consecutive failures:
// base doubled per additional failure, never exceeding cap.
func backoff(base, cap time.Duration, failures int) time.Duration {
	if failures < 1 {
		failures = 1
	}
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
