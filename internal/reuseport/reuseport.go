// Package reuseport sets the socket option that lets several processes bind
// one listening address, each with its own accept queue, with the kernel
// distributing incoming connections across them. Prefork workers bind their
// listeners through it.
package reuseport

import "syscall"

// Control is a net.ListenConfig.Control function that enables address/port
// sharing on the socket before it is bound.
func Control(network, address string, c syscall.RawConn) error {
	var soErr error
	if err := c.Control(func(fd uintptr) {
		soErr = setReusePort(fd)
	}); err != nil {
		return err
	}
	return soErr
}
