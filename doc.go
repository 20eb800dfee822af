// Package gemini implements the Gemini application protocol: a client, a
// server and the TLS transport they share. Gemini is one request and one
// response per connection; nothing here pools, pipelines or multiplexes.
//
// # Client
//
//	client := &gemini.Client{}
//	resp, err := client.Request("gemini://example.org/")
//	if err != nil {
//	    return err
//	}
//	body, err := resp.Body()
//
// The client dials with certificate verification disabled: Gemini trust is
// trust-on-first-use, so self-signed certificates are the norm and chain
// validation would reject most of the network. Response.ServerCertFingerprint
// exposes the material a caller needs to pin hosts itself.
//
// # Server
//
//	srv := &gemini.Server{Handler: func(req *gemini.Request) error {
//	    return req.RespondSuccess("text/gemini", "# hello\n")
//	}}
//	err := srv.ListenAndServe("0.0.0.0", 1965, "cert.pem", "key.pem")
//
// A server handles one connection at a time, end to end. Concurrency comes
// from process replication: see the prefork subpackage, which runs a fixed
// pool of worker processes sharing one port through SO_REUSEPORT.
package gemini
