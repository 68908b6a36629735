// Package tlsengine adapts crypto/tls.Conn to the engine.Engine contract
// that the connection core drives.
//
// crypto/tls is blocking: Handshake, Read and Write all run to completion
// or to a hard error, whereas the engine.Engine contract expects
// want-read/want-write reentry after a single non-blocking attempt.
// CryptoEngine bridges the two by arming a time.Now() deadline before
// every underlying Read/Write (the standard technique for emulating
// non-blocking I/O over a blocking net.Conn) and classifying a
// resulting timeout by which operation the wrapped conn last attempted.
//
// crypto/tls also has no public API for server-side 0-RTT. ReadEarlyData
// and WriteEarlyData are honest no-ops here rather than faked to look
// functional; InInit always reports false.
package tlsengine

import (
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/flowgate/proxycore/engine"
)

type opKind int32

const (
	opNone opKind = iota
	opRead
	opWrite
)

// pollConn wraps a net.Conn so every Read/Write is given an
// already-expired deadline, turning crypto/tls's blocking calls into
// single non-blocking attempts, while remembering which direction was
// attempted so a resulting timeout can be classified as want-read or
// want-write.
type pollConn struct {
	net.Conn
	lastOp atomic.Int32
}

func (c *pollConn) Read(p []byte) (int, error) {
	c.lastOp.Store(int32(opRead))
	if err := c.Conn.SetReadDeadline(time.Now()); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *pollConn) Write(p []byte) (int, error) {
	c.lastOp.Store(int32(opWrite))
	if err := c.Conn.SetWriteDeadline(time.Now()); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

func (c *pollConn) lastOpKind() opKind {
	return opKind(c.lastOp.Load())
}

// CryptoEngine implements engine.Engine over crypto/tls.
type CryptoEngine struct {
	raw    *pollConn
	config *tls.Config
	conn   *tls.Conn
	done   bool
}

// New builds a CryptoEngine bound to conn. Exactly one of ConnectState or
// AcceptState must be called before DoHandshake, selecting the role —
// crypto/tls fixes the role at tls.Conn construction time, so the role
// call is what actually builds the *tls.Conn.
func New(conn net.Conn, config *tls.Config) *CryptoEngine {
	return &CryptoEngine{raw: &pollConn{Conn: conn}, config: config}
}

func (e *CryptoEngine) SetFD(int) {
	// crypto/tls operates entirely over the net.Conn given to New; the
	// raw descriptor is only needed by the reactor and by GetTCPHint,
	// both of which hold it independently. Nothing to bind here.
}

func (e *CryptoEngine) ConnectState() {
	e.conn = tls.Client(e.raw, e.config)
}

func (e *CryptoEngine) AcceptState() {
	e.conn = tls.Server(e.raw, e.config)
}

func classifyTimeout(raw *pollConn, err error) engine.Status {
	var ne net.Error
	if ok := asNetError(err, &ne); ok && ne.Timeout() {
		if raw.lastOpKind() == opWrite {
			return engine.StatusWantWrite
		}
		return engine.StatusWantRead
	}
	return engine.StatusProtocolError
}

func asNetError(err error, target *net.Error) bool {
	if err == nil {
		return false
	}
	if ne, ok := err.(net.Error); ok {
		*target = ne
		return true
	}
	return false
}

// DoHandshake drives the handshake forward by one attempt. Because
// crypto/tls retries its own internal state across calls to Handshake,
// repeated calls after a want-read/want-write classification correctly
// resume where the last attempt left off.
func (e *CryptoEngine) DoHandshake() engine.Status {
	if e.done {
		return engine.StatusComplete
	}
	err := e.conn.Handshake()
	if err == nil {
		e.done = true
		return engine.StatusComplete
	}
	if err.Error() == "EOF" {
		return engine.StatusCleanClose
	}
	return classifyTimeout(e.raw, err)
}

// ReadEarlyData always reports EarlyDataNone: crypto/tls has no
// server-side 0-RTT support to hook, so the connection core's early-data
// path degrades to waiting for the ordinary handshake to complete.
func (e *CryptoEngine) ReadEarlyData([]byte) (int, engine.EarlyDataStatus) {
	return 0, engine.EarlyDataNone
}

// WriteEarlyData always reports StatusProtocolError: crypto/tls exposes
// no public client-side 0-RTT write API (outside the QUIC-specific
// surface, which does not apply to a TCP connection). Nothing is sent;
// the connection core's WriteTLS maps this status to ErrNetwork.
func (e *CryptoEngine) WriteEarlyData([]byte) (int, engine.Status) {
	return 0, engine.StatusProtocolError
}

func (e *CryptoEngine) Read(p []byte) (int, engine.Status) {
	n, err := e.conn.Read(p)
	if n > 0 {
		return n, engine.StatusProgress
	}
	if err == nil {
		return 0, engine.StatusProgress
	}
	if err.Error() == "EOF" {
		return 0, engine.StatusCleanClose
	}
	return 0, classifyTimeout(e.raw, err)
}

func (e *CryptoEngine) Write(p []byte) (int, engine.Status) {
	n, err := e.conn.Write(p)
	if n > 0 {
		return n, engine.StatusProgress
	}
	if err == nil {
		return 0, engine.StatusProgress
	}
	return 0, classifyTimeout(e.raw, err)
}

// InInit always reports false: crypto/tls has no analogue of BoringSSL
// reporting "still in handshake" after Handshake has returned success.
func (e *CryptoEngine) InInit() bool {
	return false
}

// Shutdown attempts a best-effort close_notify without blocking; any
// error (including a timeout from the non-blocking deadline) is
// discarded. Close is fire-and-forget during disconnect.
func (e *CryptoEngine) Shutdown() {
	if e.conn == nil {
		return
	}
	_ = e.raw.Conn.SetWriteDeadline(time.Now().Add(50 * time.Millisecond))
	_ = e.conn.CloseWrite()
}

func (e *CryptoEngine) ALPNSelected() string {
	return e.conn.ConnectionState().NegotiatedProtocol
}

func (e *CryptoEngine) NegotiatedVersion() uint16 {
	return e.conn.ConnectionState().Version
}

func (e *CryptoEngine) CipherSuite() uint16 {
	return e.conn.ConnectionState().CipherSuite
}
