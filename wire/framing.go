package wire

import (
	"errors"
	"io"
	"strconv"
)

const (
	// MaxMetaLen is the longest meta field a response header may carry.
	MaxMetaLen = 1024

	// maxHeaderLine bounds the response header read: two status digits,
	// one space, the meta and the terminator.
	maxHeaderLine = 1030

	// maxRequestLine is a full request on the wire: the URL and CRLF.
	maxRequestLine = MaxURLLen + 2
)

var (
	ErrEmptyResponse  = errors.New("gemini: empty response")
	ErrHeaderTooLong  = errors.New("gemini: response header too long")
	ErrRequestTooLong = errors.New("gemini: request line too long")
	ErrClosedEarly    = errors.New("gemini: connection closed before line terminator")

	errLineTooLong = errors.New("gemini: line exceeds bound")
)

// Header is a parsed response header. Meta's meaning depends on the status
// category: MIME type on success, target URL on redirects, human-readable
// message otherwise.
type Header struct {
	Status Status
	Meta   string
}

// readLine consumes bytes from r until a line feed, stripping the carriage
// return that normally precedes it. max bounds the total bytes consumed,
// terminator included. Gemini allows no look-ahead here: the body follows the
// header on the same stream, so the line is read one byte at a time rather
// than through a buffered reader that could swallow body bytes.
func readLine(r io.Reader, max int) ([]byte, error) {
	buf := make([]byte, 0, 64)
	one := make([]byte, 1)
	total := 0
	for {
		n, err := r.Read(one)
		if n > 0 {
			total++
			if total > max {
				return nil, errLineTooLong
			}
			if one[0] == '\n' {
				if len(buf) > 0 && buf[len(buf)-1] == '\r' {
					buf = buf[:len(buf)-1]
				}
				return buf, nil
			}
			buf = append(buf, one[0])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(buf) == 0 {
					return nil, io.EOF
				}
				return buf, io.ErrUnexpectedEOF
			}
			return nil, err
		}
	}
}

// ReadHeader reads and parses one response header from r.
//
// A well-formed header is "<status> <meta>" and meta starts at the fourth
// byte. A header with no space after the status code is accepted too, with
// meta starting right after the digits; servers in the wild produce such
// lines and rejecting them buys nothing. The leniency is deliberate and
// pinned by tests.
func ReadHeader(r io.Reader) (Header, error) {
	line, err := readLine(r, maxHeaderLine)
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return Header{}, ErrEmptyResponse
	case errors.Is(err, errLineTooLong):
		return Header{}, ErrHeaderTooLong
	case err != nil:
		return Header{}, err
	}

	status, err := ParseStatus(string(line))
	if err != nil {
		return Header{}, err
	}
	h := Header{Status: status}
	switch {
	case len(line) >= 4:
		h.Meta = string(line[3:])
	case len(line) == 3:
		h.Meta = string(line[2:])
	}
	return h, nil
}

// ReadRequestLine reads one request line from r, bounded at 1026 bytes
// (the URL limit plus CRLF).
func ReadRequestLine(r io.Reader) (string, error) {
	line, err := readLine(r, maxRequestLine)
	switch {
	case errors.Is(err, errLineTooLong):
		return "", ErrRequestTooLong
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return "", ErrClosedEarly
	case err != nil:
		return "", err
	}
	return string(line), nil
}

// WriteHeader writes "<status> <meta>\r\n" to w.
func WriteHeader(w io.Writer, status Status, meta string) error {
	_, err := io.WriteString(w, strconv.Itoa(int(status))+" "+meta+"\r\n")
	return err
}

// WriteRequestLine writes the canonical request line for u. The canonical
// form can be longer than the string the URL was parsed from, so the wire
// bound is checked again here.
func WriteRequestLine(w io.Writer, u URL) error {
	line := u.String() + "\r\n"
	if len(line) > maxRequestLine {
		return ErrRequestTooLong
	}
	_, err := io.WriteString(w, line)
	return err
}
