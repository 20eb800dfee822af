package gemini

import (
	"go.uber.org/zap"

	"github.com/gemkit/gemini/wire"
)

// Handler handles one parsed request. A handler must call exactly one
// Respond method; returning an error without having responded makes the
// dispatcher send a generic temporary failure on the handler's behalf.
type Handler func(*Request) error

// Server dispatches accepted connections. Each connection runs the full
// accept, handshake, read, dispatch, respond, close sequence before the next
// accept: a server process handles one connection at a time, and scaling
// comes from running several such processes on a shared port (see the
// prefork package), not from goroutines here.
type Server struct {
	Handler Handler

	// Logger receives per-connection failures. Nil disables logging.
	Logger *zap.Logger
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// ListenAndServe binds a TLS listener and serves it until Accept fails.
func (s *Server) ListenAndServe(addr string, port int, certFile, keyFile string) error {
	l, err := ListenTLS(addr, port, certFile, keyFile, false)
	if err != nil {
		return err
	}
	defer l.Close()
	return s.Serve(l)
}

// Serve accepts from l forever. A failed connection is logged and the loop
// keeps going; only an Accept error ends it.
func (s *Server) Serve(l Listener) error {
	log := s.logger()
	for {
		stream, err := l.Accept()
		if err != nil {
			return err
		}
		if err := s.HandleConn(stream); err != nil {
			log.Warn("connection failed", zap.Error(err))
		}
	}
}

// HandleConn runs the dispatch state machine for one connection. Framing and
// parse failures produce a bad-request response without ever invoking the
// handler; a handler error with no response sent produces a best-effort
// internal-error response. The stream is closed on every exit path, and the
// peer sees a well-formed status line for every failure detected here.
func (s *Server) HandleConn(stream Stream) error {
	req := &Request{stream: stream}
	defer stream.Close()

	if err := stream.Handshake(); err != nil {
		return err
	}

	raw, err := wire.ReadRequestLine(stream)
	if err != nil {
		// Secondary failures are swallowed: there is no recovery action,
		// and reporting them would mask the framing error.
		_ = req.Respond(wire.StatusBadRequest, err.Error())
		return err
	}
	req.RawRequest = raw

	u, err := wire.ParseURL(raw)
	if err != nil {
		_ = req.Respond(wire.StatusBadRequest, err.Error())
		return err
	}
	if !u.IsValid() {
		_ = req.Respond(wire.StatusBadRequest, ErrBadRequest.Error())
		return ErrBadRequest
	}
	req.URL = u

	if err := s.Handler(req); err != nil {
		if !req.responded {
			_ = req.Respond(wire.StatusTemporaryFailure, "internal server error")
		}
		return err
	}
	return nil
}
