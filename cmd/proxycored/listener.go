package main

import (
	"net"
	"time"
)

// keepAliveListener wraps a *net.TCPListener to enable TCP keep-alives on
// every accepted connection, the way net/http's server listener does.
type keepAliveListener struct {
	*net.TCPListener
}

func (l keepAliveListener) Accept() (net.Conn, error) {
	conn, err := l.AcceptTCP()
	if err != nil {
		return nil, err
	}
	_ = conn.SetKeepAlive(true)
	_ = conn.SetKeepAlivePeriod(3 * time.Minute)
	return conn, nil
}
