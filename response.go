package gemini

import (
	"errors"
	"io"

	"github.com/gemkit/gemini/wire"
)

var ErrBodyAlreadyRead = errors.New("gemini: response body already read")

const (
	bodyUnread = iota
	bodyBuffered
	bodyStreaming
)

// Response is the reply to one request. It owns its stream exclusively: the
// body is consumable exactly once, either whole through Body/Text or in
// chunks through Next, and the stream is closed once the body has been
// consumed (or on Close, whichever comes first).
type Response struct {
	Status wire.Status
	Meta   string

	stream     Stream
	mode       int
	eofPending bool
	streamDone bool
	closed     bool
}

func (r *Response) IsInput() bool        { return r.Status.IsInput() }
func (r *Response) IsSuccess() bool      { return r.Status.IsSuccess() }
func (r *Response) IsRedirect() bool     { return r.Status.IsRedirect() }
func (r *Response) IsFailure() bool      { return r.Status.IsFailure() }
func (r *Response) IsCertRequired() bool { return r.Status.IsCertRequired() }

// MimeType returns the meta field, which carries the MIME type on success
// responses.
func (r *Response) MimeType() string { return r.Meta }

// Body reads the rest of the stream until the server closes the connection
// and returns it whole. Gemini bodies have no length field: a clean peer
// closure is the terminator, and any other read failure is an error. The
// stream is closed before Body returns.
func (r *Response) Body() ([]byte, error) {
	if r.mode != bodyUnread {
		return nil, ErrBodyAlreadyRead
	}
	r.mode = bodyBuffered
	defer r.Close()
	return io.ReadAll(r.stream)
}

// Text is Body with the result as a string.
func (r *Response) Text() (string, error) {
	data, err := r.Body()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Next fills p with the next chunk of the body and returns the byte count.
// The end of the body is one final (0, nil) return, at which point the
// stream has been closed; calling Next again after that, or after Body, is
// ErrBodyAlreadyRead.
func (r *Response) Next(p []byte) (int, error) {
	if r.mode == bodyBuffered || r.streamDone {
		return 0, ErrBodyAlreadyRead
	}
	r.mode = bodyStreaming

	if r.eofPending {
		r.finishStream()
		return 0, nil
	}
	n, err := r.stream.Read(p)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		if n > 0 {
			// Hand out the final chunk now, signal completion on the
			// next call.
			r.eofPending = true
			return n, nil
		}
		r.finishStream()
		return 0, nil
	default:
		r.finishStream()
		return n, err
	}
}

func (r *Response) finishStream() {
	r.streamDone = true
	r.Close()
}

// ServerCertFingerprint returns the SHA-256 fingerprint of the server
// certificate, the value a TOFU store would pin for this host.
func (r *Response) ServerCertFingerprint() (string, error) {
	return r.stream.PeerCertFingerprint()
}

// Close releases the stream. It is idempotent and safe on every path,
// including after the body readers have already closed the stream.
func (r *Response) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.stream.Close()
}
