package gemini

import (
	"errors"
	"strings"

	"github.com/gemkit/gemini/wire"
)

var (
	ErrAlreadyResponded = errors.New("gemini: response already sent")
	ErrBadRequest       = errors.New("gemini: bad request")
)

// Request is one accepted connection with its parsed request line. The
// dispatcher owns the stream; a handler interacts with it only through the
// Respond methods, and only one of them may succeed: the second attempt
// fails with ErrAlreadyResponded and writes nothing.
type Request struct {
	URL        wire.URL
	RawRequest string

	stream    Stream
	responded bool
}

// Respond sends the status line with meta and no body.
func (r *Request) Respond(status wire.Status, meta string) error {
	if r.responded {
		return ErrAlreadyResponded
	}
	r.responded = true
	return wire.WriteHeader(r.stream, status, meta)
}

// RespondSuccess sends a success header carrying the MIME type, followed by
// the whole body. Gemini has no chunking: the body goes out in one piece and
// the connection closes after it.
func (r *Request) RespondSuccess(mime, body string) error {
	return r.RespondBytes(mime, []byte(body))
}

// RespondBytes is RespondSuccess for binary payloads.
func (r *Request) RespondBytes(mime string, body []byte) error {
	if err := r.Respond(wire.StatusSuccess, mime); err != nil {
		return err
	}
	_, err := r.stream.Write(body)
	return err
}

// RespondInput asks the client to prompt the user and retry with a query.
func (r *Request) RespondInput(prompt string) error {
	return r.Respond(wire.StatusInput, prompt)
}

// RespondRedirect points the client at target.
func (r *Request) RespondRedirect(target string, permanent bool) error {
	status := wire.StatusRedirectTemporary
	if permanent {
		status = wire.StatusRedirectPermanent
	}
	return r.Respond(status, target)
}

func (r *Request) RespondNotFound(msg string) error {
	return r.Respond(wire.StatusNotFound, msg)
}

func (r *Request) RespondError(msg string) error {
	return r.Respond(wire.StatusPermanentFailure, msg)
}

func (r *Request) RespondTempError(msg string) error {
	return r.Respond(wire.StatusTemporaryFailure, msg)
}

func (r *Request) RespondCertRequired(msg string) error {
	return r.Respond(wire.StatusCertificateRequired, msg)
}

func (r *Request) RespondCertUnauthorized(msg string) error {
	return r.Respond(wire.StatusCertificateNotAuthorized, msg)
}

func (r *Request) RespondCertInvalid(msg string) error {
	return r.Respond(wire.StatusCertificateNotValid, msg)
}

// HasClientCert reports whether the client presented a certificate during
// the handshake.
func (r *Request) HasClientCert() bool {
	return r.stream.HasPeerCert()
}

// ClientCertFingerprint returns the SHA-256 fingerprint of the client
// certificate as 64 lowercase hex characters, or ErrNoPeerCert when the
// client presented none.
func (r *Request) ClientCertFingerprint() (string, error) {
	return r.stream.PeerCertFingerprint()
}

// VerifyClientCert compares the client certificate fingerprint against
// expected, ignoring hex case. It fails with ErrNoPeerCert when the client
// presented no certificate.
func (r *Request) VerifyClientCert(expected string) (bool, error) {
	actual, err := r.stream.PeerCertFingerprint()
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
