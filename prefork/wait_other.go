//go:build !unix

package prefork

import "errors"

// Process replication needs fork/exec plus a non-blocking child wait; on
// platforms without them, run a single gemini.Server per process under an
// external service manager instead.
func reapChild() (int, error) {
	return 0, errors.New("prefork: child reaping not supported on this platform")
}
