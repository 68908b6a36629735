package proxycore

import (
	"net"
	"syscall"
)

// socketFD extracts the raw descriptor backing conn, or -1 if conn
// doesn't expose one (e.g. an in-memory test conn). The descriptor is
// read, never duplicated: the reactor only ever arms/disarms epoll
// interest on it and GetTCPHint only ever reads TCP_INFO from it: neither
// closes it, since conn itself owns the descriptor's lifetime.
func socketFD(conn net.Conn) int {
	type rawConner interface {
		SyscallConn() (rc syscallRawConn, err error)
	}
	rc, ok := conn.(rawConner)
	if !ok {
		return -1
	}
	raw, err := rc.SyscallConn()
	if err != nil {
		return -1
	}
	var fd int = -1
	_ = raw.Control(func(f uintptr) { fd = int(f) })
	return fd
}

// syscallRawConn is an alias of syscall.RawConn, so the rawConner method
// signature is identical to *net.TCPConn's SyscallConn and the type
// assertion in socketFD matches real sockets.
type syscallRawConn = syscall.RawConn
