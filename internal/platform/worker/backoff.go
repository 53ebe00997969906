package worker

import "time"

// BackoffCeiling returns the exponential delay ceiling before the given retry
// (1-based): base doubled retry-1 times, capped at maxDelay.
func BackoffCeiling(base, maxDelay time.Duration, retry int) time.Duration {
	d := base

	for i := 1; i < retry; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}

	return min(d, maxDelay)
}

// RetryBudget is the longest a call retried attempts times can take when every
// attempt runs to attemptTimeout and every backoff reaches its ceiling.
func RetryBudget(attempts int, attemptTimeout, base, maxDelay time.Duration) time.Duration {
	budget := time.Duration(attempts) * attemptTimeout

	for retry := 1; retry < attempts; retry++ {
		budget += BackoffCeiling(base, maxDelay, retry)
	}

	return budget
}
