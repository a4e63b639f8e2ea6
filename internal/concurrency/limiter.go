// Package concurrency provides the bounded in-flight I/O limiter described
// in spec.md §5: independent per-file I/O (hashing, EXIF reads, stat) may
// run in parallel under a configurable cap, default 5, hard cap 10.
//
// Adapted from a prior internal/limiter.CPULimiter — that type
// throttled CPU time by sleeping; this spec has no CPU-throttling concept,
// only a bounded-concurrency one, so the implementation is a plain counting
// semaphore instead.
package concurrency

const hardCap = 10

// Limiter bounds the number of concurrently in-flight operations.
type Limiter struct {
	sem chan struct{}
}

// NewLimiter creates a Limiter allowing up to n concurrent holders. n is
// clamped to [1, hardCap] regardless of what the caller passes, since the
// spec fixes 10 as an absolute ceiling on in-flight I/O.
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		n = 1
	}
	if n > hardCap {
		n = hardCap
	}
	return &Limiter{sem: make(chan struct{}, n)}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire() { l.sem <- struct{}{} }

// Release frees a slot.
func (l *Limiter) Release() { <-l.sem }

// Capacity reports the configured concurrency bound.
func (l *Limiter) Capacity() int { return cap(l.sem) }
