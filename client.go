package gemini

import (
	"crypto/tls"
	"errors"
	"fmt"

	"github.com/gemkit/gemini/wire"
)

// DefaultMaxRedirects is how many redirects Request follows when the client
// does not say otherwise.
const DefaultMaxRedirects = 5

var (
	ErrTooManyRedirects    = errors.New("gemini: too many redirects")
	ErrEmptyRedirectTarget = errors.New("gemini: redirect with empty target")
	ErrInvalidRedirectURL  = errors.New("gemini: invalid redirect target")
)

// Client performs Gemini requests. The zero value is usable: it follows up
// to DefaultMaxRedirects redirects over the default TOFU TLS dialer.
//
// Every request opens a fresh connection, redirects included; the protocol
// allows exactly one exchange per connection, so there is nothing to reuse.
// No I/O timeout is applied anywhere: an unresponsive peer blocks the caller
// until the transport gives up.
type Client struct {
	// MaxRedirects bounds how many redirects Request follows. Zero or
	// negative means DefaultMaxRedirects; use RequestNoRedirect to not
	// follow any.
	MaxRedirects int

	// Certificate is the optional client identity presented during the
	// handshake when the default dialer is in use.
	Certificate *tls.Certificate

	// Dialer overrides the transport. Nil means TOFU TLS dialing.
	Dialer Dialer

	stats clientStats
}

func (c *Client) maxRedirects() int {
	if c.MaxRedirects <= 0 {
		return DefaultMaxRedirects
	}
	return c.MaxRedirects
}

func (c *Client) dialer() Dialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return &TLSDialer{Certificate: c.Certificate}
}

// Request fetches raw, following redirect responses until a non-redirect
// arrives or the redirect budget is spent. The returned response owns a live
// stream; read its body or close it.
func (c *Client) Request(raw string) (*Response, error) {
	u, err := wire.ParseURL(raw)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}

	redirects := 0
	for {
		resp, err := c.do(u)
		if err != nil {
			c.stats.recordError()
			return nil, err
		}
		if !resp.Status.IsRedirect() {
			return resp, nil
		}

		resp.Close()
		c.stats.recordRedirect()
		redirects++
		if redirects > c.maxRedirects() {
			c.stats.recordError()
			return nil, ErrTooManyRedirects
		}
		if resp.Meta == "" {
			c.stats.recordError()
			return nil, ErrEmptyRedirectTarget
		}
		next, err := wire.Combine(u, resp.Meta)
		if err != nil {
			c.stats.recordError()
			return nil, fmt.Errorf("%w: %v", ErrInvalidRedirectURL, err)
		}
		if !next.IsValid() {
			c.stats.recordError()
			return nil, ErrInvalidRedirectURL
		}
		u = next
	}
}

// RequestNoRedirect performs exactly one exchange and returns whatever came
// back, redirect statuses included, so the caller can inspect the target
// without following it.
func (c *Client) RequestNoRedirect(raw string) (*Response, error) {
	u, err := wire.ParseURL(raw)
	if err != nil {
		c.stats.recordError()
		return nil, err
	}
	resp, err := c.do(u)
	if err != nil {
		c.stats.recordError()
	}
	return resp, err
}

// do runs one full exchange: connect, handshake, send the request line, read
// the header. On success the returned response is bound to the still-open
// stream for body consumption; on any failure the stream is closed here.
func (c *Client) do(u wire.URL) (*Response, error) {
	c.stats.recordRequest()

	stream, err := c.dialer().Dial(u.Host, u.Port)
	if err != nil {
		return nil, err
	}
	if err := stream.Handshake(); err != nil {
		stream.Close()
		return nil, err
	}
	if err := wire.WriteRequestLine(stream, u); err != nil {
		stream.Close()
		return nil, err
	}
	header, err := wire.ReadHeader(stream)
	if err != nil {
		stream.Close()
		return nil, err
	}
	return &Response{Status: header.Status, Meta: header.Meta, stream: stream}, nil
}

// Stats returns a snapshot of the client's activity counters.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}
