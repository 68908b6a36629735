package reactor

import (
	"net"
	"testing"
)

// connFD extracts a duplicated, OS-owned file descriptor from a TCP
// conn for direct epoll registration in tests. The returned release
// func must be called once the watcher using it has been stopped.
func connFD(t *testing.T, conn net.Conn) (fd int, release func()) {
	t.Helper()
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		t.Fatalf("connFD: not a *net.TCPConn: %T", conn)
	}
	f, err := tc.File()
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	return int(f.Fd()), func() { f.Close() }
}
