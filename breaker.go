package gemini

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/gemkit/gemini/wire"
)

// NewHostBreaker returns a factory producing one circuit breaker per host,
// for use with BreakerClient. This is a helper for common settings; callers
// with specific needs build their own gobreaker.Settings.
func NewHostBreaker(maxRequests uint32, interval, timeout time.Duration) func(host string) *gobreaker.CircuitBreaker[*Response] {
	return func(host string) *gobreaker.CircuitBreaker[*Response] {
		settings := gobreaker.Settings{
			Name:        host,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		}
		return gobreaker.NewCircuitBreaker[*Response](settings)
	}
}

// BreakerClient wraps a Client so that hosts which keep failing are cut off
// for a cooldown period instead of being dialed on every call. Breakers are
// created lazily, one per hostname.
type BreakerClient struct {
	client     *Client
	newBreaker func(host string) *gobreaker.CircuitBreaker[*Response]

	mu       sync.RWMutex
	breakers map[string]*gobreaker.CircuitBreaker[*Response]
}

// NewBreakerClient wraps client. A nil newBreaker gets conservative
// defaults: one probe after thirty seconds of open state.
func NewBreakerClient(client *Client, newBreaker func(host string) *gobreaker.CircuitBreaker[*Response]) *BreakerClient {
	if newBreaker == nil {
		newBreaker = NewHostBreaker(1, time.Minute, 30*time.Second)
	}
	return &BreakerClient{
		client:     client,
		newBreaker: newBreaker,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[*Response]),
	}
}

// Request is Client.Request guarded by the target host's breaker. While the
// breaker is open the call fails fast with gobreaker.ErrOpenState.
func (b *BreakerClient) Request(raw string) (*Response, error) {
	u, err := wire.ParseURL(raw)
	if err != nil {
		return nil, err
	}
	return b.breakerFor(u.Host).Execute(func() (*Response, error) {
		return b.client.Request(raw)
	})
}

// RequestNoRedirect is Client.RequestNoRedirect under the same guard.
func (b *BreakerClient) RequestNoRedirect(raw string) (*Response, error) {
	u, err := wire.ParseURL(raw)
	if err != nil {
		return nil, err
	}
	return b.breakerFor(u.Host).Execute(func() (*Response, error) {
		return b.client.RequestNoRedirect(raw)
	})
}

func (b *BreakerClient) breakerFor(host string) *gobreaker.CircuitBreaker[*Response] {
	b.mu.RLock()
	cb, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return cb
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[host]; ok {
		return cb
	}
	cb = b.newBreaker(host)
	b.breakers[host] = cb
	return cb
}
