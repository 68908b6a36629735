package proxycore

import "errors"

// Sentinel errors returned by the core's I/O and handshake entry points,
// following the standard library's io.EOF convention (compare with
// errors.Is) rather than a bespoke error-code framework — only four fixed
// outcomes ever need distinguishing here.
var (
	// ErrNetwork signals an unrecoverable transport or TLS error; the
	// caller should close the connection.
	ErrNetwork = errors.New("proxycore: unrecoverable network or TLS error")

	// ErrEOF signals a clean peer close; the caller should finalize.
	ErrEOF = errors.New("proxycore: clean peer close")

	// ErrInProgress signals that a handshake has not yet completed and
	// needs more reactor events.
	ErrInProgress = errors.New("proxycore: handshake in progress")

	// ErrProtocol signals a handshake that completed at the TLS layer
	// but violates protocol-selection policy (ALPN/cipher checks).
	ErrProtocol = errors.New("proxycore: protocol policy violation")
)
