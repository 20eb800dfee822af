//go:build !linux && !darwin && !freebsd

package reuseport

import "errors"

func setReusePort(fd uintptr) error {
	return errors.New("reuseport: not supported on this platform")
}
