package proxycore

// TCPHint is best-effort guidance for upper-layer batching, derived from
// the kernel's TCP_INFO for this connection's socket.
type TCPHint struct {
	// WriteBufferSize estimates how many bytes the congestion window
	// currently allows in flight, net of TLS record overhead.
	WriteBufferSize int
	// RWin is the peer's advertised receive space.
	RWin int
}

// minTCPHintWrite is the floor WriteBufferSize is clamped to when the
// congestion-window-derived estimate would otherwise round down to
// something smaller than two minimum-MTU segments.
const minTCPHintWrite = 2 * 536

// tcpHintRounding is the 16 KiB granularity roundTCPHintWrite rounds n
// down to, but only once n has already reached that size; smaller values
// are left for the minTCPHintWrite clamp to handle.
const tcpHintRounding = 16 * 1024

func roundTCPHintWrite(n int) int {
	if n >= tcpHintRounding {
		return (n / tcpHintRounding) * tcpHintRounding
	}
	if n < minTCPHintWrite {
		return minTCPHintWrite
	}
	return n
}

// tlsOverheadFor returns the per-record TLS overhead byte count: 22
// under TLS 1.3 (a single content-type byte, no explicit IV, 16-byte
// AEAD tag), 29 for older versions (explicit IV + larger framing).
func tlsOverheadFor(version uint16) int {
	const tls13 = 0x0304
	if version == tls13 {
		return 22
	}
	return 29
}
