package gemini

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"io"
	"net"
	"strconv"

	"github.com/pkg/errors"

	"github.com/gemkit/gemini/internal/reuseport"
)

var ErrNoPeerCert = errors.New("gemini: peer presented no certificate")

// Stream is one TLS-secured connection carrying a single exchange. Read must
// return io.EOF for a clean peer-initiated closure and a different error for
// transport failures; the response body reader relies on that distinction to
// find the end of the body.
type Stream interface {
	io.ReadWriteCloser

	// Handshake completes the TLS handshake if it has not run yet.
	Handshake() error

	// HasPeerCert reports whether the peer presented a certificate.
	HasPeerCert() bool

	// PeerCertFingerprint returns the SHA-256 digest of the peer's
	// DER-encoded certificate as 64 lowercase hex characters, or
	// ErrNoPeerCert when the peer presented none.
	PeerCertFingerprint() (string, error)
}

// Dialer opens client connections.
type Dialer interface {
	Dial(host string, port int) (Stream, error)
}

// Listener accepts server connections.
type Listener interface {
	Accept() (Stream, error)
	Close() error
	Addr() net.Addr
}

// TLSDialer dials TLS with chain verification disabled: Gemini trust is
// per-host TOFU, not a certificate authority hierarchy.
type TLSDialer struct {
	// Certificate is presented to servers that ask for a client identity.
	Certificate *tls.Certificate
}

func (d *TLSDialer) Dial(host string, port int) (Stream, error) {
	cfg := &tls.Config{
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
	}
	if d.Certificate != nil {
		cfg.Certificates = []tls.Certificate{*d.Certificate}
	}
	netConn, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return &tlsStream{conn: tls.Client(netConn, cfg)}, nil
}

// ListenTLS binds a TLS listener on addr:port with the certificate loaded
// from certFile/keyFile. With reusePort set, several processes can bind the
// same port and the kernel spreads incoming connections across their accept
// queues; prefork workers rely on this.
func ListenTLS(addr string, port int, certFile, keyFile string, reusePort bool) (Listener, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "gemini: load key pair")
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.RequestClientCert,
		MinVersion:   tls.VersionTLS12,
	}
	return ListenTLSConfig(addr, port, cfg, reusePort)
}

// ListenTLSConfig is ListenTLS with a caller-supplied tls.Config. The config
// should keep ClientAuth at tls.RequestClientCert so clients may volunteer a
// certificate without being required to.
func ListenTLSConfig(addr string, port int, cfg *tls.Config, reusePort bool) (Listener, error) {
	var lc net.ListenConfig
	if reusePort {
		lc.Control = reuseport.Control
	}
	ln, err := lc.Listen(context.Background(), "tcp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return nil, errors.Wrap(err, "gemini: listen")
	}
	return &tlsListener{ln: tls.NewListener(ln, cfg)}, nil
}

type tlsListener struct {
	ln net.Listener
}

func (l *tlsListener) Accept() (Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return &tlsStream{conn: conn.(*tls.Conn)}, nil
}

func (l *tlsListener) Close() error   { return l.ln.Close() }
func (l *tlsListener) Addr() net.Addr { return l.ln.Addr() }

type tlsStream struct {
	conn *tls.Conn
}

func (s *tlsStream) Read(p []byte) (int, error)  { return s.conn.Read(p) }
func (s *tlsStream) Write(p []byte) (int, error) { return s.conn.Write(p) }
func (s *tlsStream) Close() error                { return s.conn.Close() }
func (s *tlsStream) Handshake() error            { return s.conn.Handshake() }

func (s *tlsStream) HasPeerCert() bool {
	return len(s.conn.ConnectionState().PeerCertificates) > 0
}

func (s *tlsStream) PeerCertFingerprint() (string, error) {
	certs := s.conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", ErrNoPeerCert
	}
	sum := sha256.Sum256(certs[0].Raw)
	return hex.EncodeToString(sum[:]), nil
}
