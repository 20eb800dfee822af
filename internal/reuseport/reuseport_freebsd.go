package reuseport

import "golang.org/x/sys/unix"

// SO_REUSEPORT_LB gives kernel load balancing across the listeners, which
// plain SO_REUSEPORT does not on FreeBSD. A maximum of 256 processes can
// share one socket.
func setReusePort(fd uintptr) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT_LB, 1)
}
