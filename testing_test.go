package gemini

import (
	"bytes"
	"fmt"
	"io"
	"net"
)

// fakeStream scripts one side of an exchange: Read serves the preloaded
// input, Write collects everything the code under test sends.
type fakeStream struct {
	in  *bytes.Reader
	out bytes.Buffer

	closed       int
	handshakeErr error
	readErr      error // returned instead of io.EOF once input runs out
	fingerprint  string
}

func newFakeStream(input string) *fakeStream {
	return &fakeStream{in: bytes.NewReader([]byte(input))}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	n, err := s.in.Read(p)
	if err == io.EOF && s.readErr != nil {
		return n, s.readErr
	}
	return n, err
}

func (s *fakeStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

func (s *fakeStream) Handshake() error { return s.handshakeErr }

func (s *fakeStream) HasPeerCert() bool { return s.fingerprint != "" }

func (s *fakeStream) PeerCertFingerprint() (string, error) {
	if s.fingerprint == "" {
		return "", ErrNoPeerCert
	}
	return s.fingerprint, nil
}

// fakeDialer hands out one scripted stream per Dial call, in order, and
// records where each call went.
type fakeDialer struct {
	streams []*fakeStream
	dialed  []string
	dialErr error
}

func (d *fakeDialer) Dial(host string, port int) (Stream, error) {
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	d.dialed = append(d.dialed, fmt.Sprintf("%s:%d", host, port))
	if len(d.streams) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	s := d.streams[0]
	d.streams = d.streams[1:]
	return s, nil
}

// fakeListener yields its scripted streams then fails Accept with errDone.
type fakeListener struct {
	streams []*fakeStream
	errDone error
}

func (l *fakeListener) Accept() (Stream, error) {
	if len(l.streams) == 0 {
		return nil, l.errDone
	}
	s := l.streams[0]
	l.streams = l.streams[1:]
	return s, nil
}

func (l *fakeListener) Close() error   { return nil }
func (l *fakeListener) Addr() net.Addr { return &net.TCPAddr{} }
