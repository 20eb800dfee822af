// Package wire provides the low-level wire format of the Gemini protocol:
// URLs, status codes and the line framing shared by clients and servers.
//
// This package serves as a foundation for the client and server in the parent
// package. It focuses on correctness of parsing and serialization without
// imposing transport or architectural decisions on callers.
//
// # Core Types
//
// URL, Status and Header are pure value types without embedded logic:
//
//   - URL: a parsed gemini:// URL in canonical form
//   - Status: a two-digit response code with category predicates
//   - Header: a parsed response header (status plus meta)
//
// # Framing
//
// A Gemini exchange is two lines plus an optional body:
//
//	request:  <url>\r\n                 (url limited to 1024 bytes)
//	response: <status> <meta>\r\n       (meta limited to 1024 bytes)
//
// ReadRequestLine and ReadHeader consume those lines from a stream with the
// protocol's length bounds enforced; WriteRequestLine and WriteHeader produce
// them. The body that follows a success header is raw bytes terminated by
// connection closure, so no body framing exists at this layer.
//
// # Redirect Resolution
//
// Combine resolves a redirect target, absolute or relative, against the URL
// that produced it:
//
//	base, _ := wire.ParseURL("gemini://example.org/a/b/c")
//	next, _ := wire.Combine(base, "../x")  // gemini://example.org/a/x
package wire
