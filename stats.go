package gemini

import "sync/atomic"

// ClientStats is a point-in-time snapshot of client activity.
// All counters are lifetime totals.
type ClientStats struct {
	Requests  uint64 // exchanges attempted (redirect hops count individually)
	Redirects uint64 // redirect responses received
	Errors    uint64 // requests that failed before a response was returned
}

// clientStats holds the live counters. All updates go through atomics so a
// client shared across goroutines still counts correctly.
type clientStats struct {
	requests  uint64
	redirects uint64
	errors    uint64
}

func (s *clientStats) recordRequest() {
	atomic.AddUint64(&s.requests, 1)
}

func (s *clientStats) recordRedirect() {
	atomic.AddUint64(&s.redirects, 1)
}

func (s *clientStats) recordError() {
	atomic.AddUint64(&s.errors, 1)
}

func (s *clientStats) snapshot() ClientStats {
	return ClientStats{
		Requests:  atomic.LoadUint64(&s.requests),
		Redirects: atomic.LoadUint64(&s.redirects),
		Errors:    atomic.LoadUint64(&s.errors),
	}
}
