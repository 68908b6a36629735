//go:build !linux

package proxycore

import "errors"

// peekRaw has no portable non-Linux implementation (no TCP_INFO-style
// syscall this core wires for MSG_PEEK either); production deployments
// target Linux, where peek_linux.go's unix.Recvfrom path is used.
func peekRaw(int, []byte) (int, error) {
	return 0, errors.New("proxycore: PeekClear unsupported on this platform")
}
