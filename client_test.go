package gemini

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemkit/gemini/wire"
)

// dialerFor scripts one stream per expected exchange, each preloaded with a
// full server response.
func dialerFor(responses ...string) *fakeDialer {
	d := &fakeDialer{}
	for _, r := range responses {
		d.streams = append(d.streams, newFakeStream(r))
	}
	return d
}

func TestClientRequest(t *testing.T) {
	dialer := dialerFor("20 text/gemini\r\nhello")
	client := &Client{Dialer: dialer}

	resp, err := client.Request("gemini://example.org/greeting")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusSuccess, resp.Status)
	assert.Equal(t, "text/gemini", resp.MimeType())

	body, err := resp.Body()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	assert.Equal(t, []string{"example.org:1965"}, dialer.dialed)
}

func TestClientRequestSendsCanonicalLine(t *testing.T) {
	stream := newFakeStream("20 text/gemini\r\n")
	dialer := &fakeDialer{streams: []*fakeStream{stream}}
	client := &Client{Dialer: dialer}

	resp, err := client.Request("gemini://example.org:1966")
	require.NoError(t, err)
	resp.Close()

	assert.Equal(t, []string{"example.org:1966"}, dialer.dialed)
	// An omitted path is normalized to "/" before it hits the wire.
	assert.Equal(t, "gemini://example.org:1966/\r\n", stream.out.String())
}

func TestClientFollowsRedirects(t *testing.T) {
	streams := []*fakeStream{
		newFakeStream("30 gemini://example.org/a\r\n"),
		newFakeStream("31 b\r\n"),
		newFakeStream("20 text/gemini\r\ndone"),
	}
	dialer := &fakeDialer{streams: append([]*fakeStream(nil), streams...)}
	client := &Client{Dialer: dialer}

	resp, err := client.Request("gemini://example.org/")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusSuccess, resp.Status)

	body, err := resp.Body()
	require.NoError(t, err)
	assert.Equal(t, "done", string(body))

	// Each hop opened a fresh connection and sent its own request line.
	require.Len(t, dialer.dialed, 3)
	assert.Equal(t, "gemini://example.org/\r\n", streams[0].out.String())
	assert.Equal(t, "gemini://example.org/a\r\n", streams[1].out.String())
	// "b" resolved relative to /a's directory.
	assert.Equal(t, "gemini://example.org/b\r\n", streams[2].out.String())

	// Redirect hops close their streams once the header is consumed.
	assert.Equal(t, 1, streams[0].closed)
	assert.Equal(t, 1, streams[1].closed)

	stats := client.Stats()
	assert.Equal(t, uint64(3), stats.Requests)
	assert.Equal(t, uint64(2), stats.Redirects)
	assert.Equal(t, uint64(0), stats.Errors)
}

func redirectChain(n int) []string {
	var responses []string
	for i := 0; i < n; i++ {
		responses = append(responses, "30 /hop\r\n")
	}
	return append(responses, "20 text/gemini\r\nend")
}

func TestClientRedirectBudget(t *testing.T) {
	t.Run("exactly max succeeds", func(t *testing.T) {
		client := &Client{Dialer: dialerFor(redirectChain(DefaultMaxRedirects)...)}
		resp, err := client.Request("gemini://h/")
		require.NoError(t, err)
		assert.Equal(t, wire.StatusSuccess, resp.Status)
		resp.Close()
	})

	t.Run("one over max fails", func(t *testing.T) {
		client := &Client{Dialer: dialerFor(redirectChain(DefaultMaxRedirects + 1)...)}
		_, err := client.Request("gemini://h/")
		assert.ErrorIs(t, err, ErrTooManyRedirects)
	})

	t.Run("custom budget", func(t *testing.T) {
		client := &Client{MaxRedirects: 1, Dialer: dialerFor(redirectChain(2)...)}
		_, err := client.Request("gemini://h/")
		assert.ErrorIs(t, err, ErrTooManyRedirects)
	})
}

func TestClientRedirectErrors(t *testing.T) {
	t.Run("empty target", func(t *testing.T) {
		client := &Client{Dialer: dialerFor("30\r\n")}
		_, err := client.Request("gemini://h/")
		assert.ErrorIs(t, err, ErrEmptyRedirectTarget)
	})

	t.Run("invalid absolute target", func(t *testing.T) {
		client := &Client{Dialer: dialerFor("31 gemini://other:99999/\r\n")}
		_, err := client.Request("gemini://h/")
		assert.ErrorIs(t, err, ErrInvalidRedirectURL)
	})
}

func TestClientRequestNoRedirect(t *testing.T) {
	client := &Client{Dialer: dialerFor("31 gemini://h/moved\r\n")}
	resp, err := client.RequestNoRedirect("gemini://h/")
	require.NoError(t, err)
	assert.Equal(t, wire.StatusRedirectPermanent, resp.Status)
	assert.Equal(t, "gemini://h/moved", resp.Meta)
	resp.Close()
}

func TestClientParseErrors(t *testing.T) {
	client := &Client{Dialer: dialerFor()}
	_, err := client.Request("https://example.org/")
	assert.ErrorIs(t, err, wire.ErrWrongScheme)

	_, err = client.Request("gemini://example.org/" + strings.Repeat("a", 1024))
	assert.ErrorIs(t, err, wire.ErrURLTooLong)

	assert.Equal(t, uint64(2), client.Stats().Errors)
}

func TestClientDialError(t *testing.T) {
	bang := errors.New("refused")
	client := &Client{Dialer: &fakeDialer{dialErr: bang}}
	_, err := client.Request("gemini://h/")
	assert.ErrorIs(t, err, bang)
	assert.Equal(t, uint64(1), client.Stats().Errors)
}

func TestClientHandshakeError(t *testing.T) {
	stream := newFakeStream("")
	stream.handshakeErr = errors.New("tls: handshake failure")
	client := &Client{Dialer: &fakeDialer{streams: []*fakeStream{stream}}}

	_, err := client.Request("gemini://h/")
	assert.ErrorIs(t, err, stream.handshakeErr)
	assert.Equal(t, 1, stream.closed, "failed handshake must close the stream")
}

func TestClientEmptyResponse(t *testing.T) {
	stream := newFakeStream("")
	client := &Client{Dialer: &fakeDialer{streams: []*fakeStream{stream}}}

	_, err := client.Request("gemini://h/")
	assert.ErrorIs(t, err, wire.ErrEmptyResponse)
	assert.Equal(t, 1, stream.closed)
}

func TestClientRequestTooLongOnWire(t *testing.T) {
	// 1024 raw bytes parse fine, but the canonical form grows a trailing
	// slash and no longer fits the wire.
	raw := "gemini://" + strings.Repeat("a", 1015)
	require.Len(t, raw, 1024)

	stream := newFakeStream("")
	client := &Client{Dialer: &fakeDialer{streams: []*fakeStream{stream}}}
	_, err := client.Request(raw)
	assert.ErrorIs(t, err, wire.ErrRequestTooLong)
	assert.Zero(t, stream.out.Len())
}
