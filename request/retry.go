package request

// DefaultMaxAttempts is the number of retries allowed after a fresh Start.
const DefaultMaxAttempts = 3

// RetryContext memorizes the last request parameters and counts retries.
// It is only written by the owning Orchestrator, under its lock.
type RetryContext[P any] struct {
	lastParams   *P
	attemptCount int
	maxAttempts  int
}

func newRetryContext[P any](maxAttempts int) RetryContext[P] {
	return RetryContext[P]{maxAttempts: maxAttempts}
}

// remember stores params as the parameters a later retry will replay.
func (r *RetryContext[P]) remember(params P) {
	r.lastParams = &params
}

// last returns the memorized parameters.
func (r *RetryContext[P]) last() (P, bool) {
	if r.lastParams == nil {
		var zero P
		return zero, false
	}
	return *r.lastParams, true
}

// reset zeroes the attempt counter. Only a fresh Start resets.
func (r *RetryContext[P]) reset() {
	r.attemptCount = 0
}

// exhausted reports whether another retry would exceed the bound.
func (r *RetryContext[P]) exhausted() bool {
	return r.attemptCount >= r.maxAttempts
}

// next increments and returns the attempt counter.
func (r *RetryContext[P]) next() int {
	r.attemptCount++
	return r.attemptCount
}

// Attempts returns the current attempt count.
func (r *RetryContext[P]) Attempts() int {
	return r.attemptCount
}

// MaxAttempts returns the retry bound.
func (r *RetryContext[P]) MaxAttempts() int {
	return r.maxAttempts
}
