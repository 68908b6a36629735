//go:build linux

package proxycore

import "golang.org/x/sys/unix"

// peekRaw performs a non-consuming MSG_PEEK read directly on fd. Go's
// runtime always puts sockets it owns into non-blocking mode internally,
// so this never blocks even without an explicit deadline: a socket with
// no data queued returns EAGAIN immediately.
func peekRaw(fd int, p []byte) (int, error) {
	for {
		n, _, err := unix.Recvfrom(fd, p, unix.MSG_PEEK)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return 0, errTimeout{}
			}
			return 0, err
		}
		return n, nil
	}
}

// errTimeout satisfies net.Error so isTimeout's classification applies
// uniformly to peekRaw's would-block case.
type errTimeout struct{}

func (errTimeout) Error() string   { return "peek: resource temporarily unavailable" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }
