package proxycore

import (
	"net"

	"github.com/flowgate/proxycore/logging"
)

// loggingConn wraps a net.Conn, logging each Read/Write/Close at debug
// level through the shared logging.Logger seam, with the connection's
// remote address attached as a structured field.
type loggingConn struct {
	net.Conn
	log logging.Logger
}

// WrapLoggingConn wraps c so every Read/Write/Close is logged at debug
// level through log. Intended for verbose-mode diagnostics; callers wrap
// the raw conn before passing it to New.
func WrapLoggingConn(c net.Conn, log logging.Logger) net.Conn {
	if log == nil {
		return c
	}
	return &loggingConn{Conn: c, log: log}
}

func (c *loggingConn) fields() logging.Fields {
	return logging.Fields{"remote": c.Conn.RemoteAddr().String()}
}

func (c *loggingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	c.log.Debugf(c.fields(), "conn read: n=%d err=%v", n, err)
	return n, err
}

func (c *loggingConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	c.log.Debugf(c.fields(), "conn write: n=%d err=%v", n, err)
	return n, err
}

func (c *loggingConn) Close() error {
	err := c.Conn.Close()
	c.log.Debugf(c.fields(), "conn close: err=%v", err)
	return err
}
