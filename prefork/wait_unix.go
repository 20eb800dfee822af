//go:build unix

package prefork

import "golang.org/x/sys/unix"

// reapChild performs one non-blocking wait for any exited child. It returns
// the reaped pid, 0 when no child has exited yet, or an error when there is
// nothing left to wait for.
func reapChild() (int, error) {
	for {
		var status unix.WaitStatus
		pid, err := unix.Wait4(-1, &status, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		return pid, nil
	}
}
